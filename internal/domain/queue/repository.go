package queue

import (
	"context"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile"
)

// Repository долговременное хранение очереди
type Repository interface {
	InsertQueueItem(ctx context.Context, item *Item) error
	// ListQueueItems возвращает элементы в порядке вставки
	ListQueueItems(ctx context.Context, statuses ...Status) ([]*Item, error)
	// UpdateQueueStatus меняет состояние; переход в syncing увеличивает Attempts
	UpdateQueueStatus(ctx context.Context, id string, status Status, errMsg string) error
	// ResetUnfinished возвращает в pending элементы в состояниях failed и syncing.
	// Вызывается только в начале прогона, когда ни один элемент не обрабатывается.
	ResetUnfinished(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

// Applier применяет изменение к удаленному хранилищу
type Applier interface {
	Apply(ctx context.Context, m reconcile.Mutation) (entity.Entity, error)
}

// Mirror локальное хранилище, в которое возвращается сохраненная сервером версия
type Mirror interface {
	Put(ctx context.Context, e entity.Entity) error
	Delete(ctx context.Context, kind entity.Kind, id string) error
	// RepointTests переносит локальные тесты на новый id точки
	RepointTests(ctx context.Context, fromPointID, toPointID string) (int, error)
}
