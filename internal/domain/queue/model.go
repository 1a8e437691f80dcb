package queue

import (
	"encoding/json"
	"time"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile"
)

// Status состояние элемента очереди: pending -> syncing -> synced | failed
type Status string

const (
	StatusPending Status = "pending"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusFailed  Status = "failed"
)

// Item элемент очереди синхронизации
type Item struct {
	ID        string              `json:"id"`
	Seq       int64               `json:"seq"`
	Table     entity.Kind         `json:"table"`
	Operation reconcile.Operation `json:"operation"`
	Data      json.RawMessage     `json:"data"`
	Status    Status              `json:"status"`
	Error     string              `json:"error,omitempty"`
	Attempts  int                 `json:"attempts"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Stats счетчики очереди по состояниям
type Stats struct {
	Pending        int                 `json:"pending"`
	Syncing        int                 `json:"syncing"`
	Synced         int                 `json:"synced"`
	Failed         int                 `json:"failed"`
	Total          int                 `json:"total"`
	PendingByTable map[entity.Kind]int `json:"pendingByTable"`
}
