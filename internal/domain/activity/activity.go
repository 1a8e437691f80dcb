// Package activity журнал действий пользователей компании
package activity

import (
	"context"
	"time"
)

type Type string

const TypeSync Type = "sync"

const syncDescription = "Sincronização de dados offline"

// SyncDetails итог одного пакета синхронизации
type SyncDetails struct {
	Points int      `json:"points"`
	Tests  int      `json:"tests"`
	Photos int      `json:"photos"`
	Synced int      `json:"synced"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// Entry запись журнала
type Entry struct {
	CompanyID   string
	UserEmail   string
	Type        Type
	Description string
	Metadata    any
	CreatedAt   time.Time
}

// Recorder сохраняет записи журнала
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Sync запись о пакете синхронизации пользователя
func Sync(companyID, email string, d SyncDetails, at time.Time) Entry {
	return Entry{
		CompanyID:   companyID,
		UserEmail:   email,
		Type:        TypeSync,
		Description: syncDescription,
		Metadata:    d,
		CreatedAt:   at,
	}
}
