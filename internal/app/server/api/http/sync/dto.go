package sync

import (
	"encoding/json"
	"time"

	"anchorview/internal/domain/reconcile"
)

// Массив сырых payload: каждый элемент разбирается в модель своего типа,
// ошибка разбора учитывается в результате, а не отклоняет весь запрос
type payloadsInput struct {
	RawBody []byte `contentType:"application/json"`
}

type batchInput struct {
	RawBody []byte `contentType:"application/json"`
}

type batchRequest struct {
	Points []json.RawMessage `json:"points"`
	Tests  []json.RawMessage `json:"tests"`
	Photos []json.RawMessage `json:"photos"`
}

type resultOutput struct {
	Body reconcile.Result
}

type statusInput struct {
	Since time.Time `query:"since" doc:"Учитывать изменения после этого момента (RFC 3339)"`
}

type statusOutput struct {
	Body reconcile.ServerStatus
}
