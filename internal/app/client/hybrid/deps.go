package hybrid

import (
	"context"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/queue"
	"anchorview/internal/domain/reconcile"
)

// LocalStore локальное хранилище сущностей
type LocalStore interface {
	Put(ctx context.Context, e entity.Entity) error
	Get(ctx context.Context, kind entity.Kind, id string) (entity.Entity, error)
	List(ctx context.Context, kind entity.Kind, f entity.Filter) ([]entity.Entity, error)
	Delete(ctx context.Context, kind entity.Kind, id string) error
	Export(ctx context.Context) (map[entity.Kind][]entity.Entity, error)
	ListQueueItems(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error)
}

// SyncQueue очередь синхронизации
type SyncQueue interface {
	Enqueue(ctx context.Context, op reconcile.Operation, table entity.Kind, data any) (*queue.Item, error)
	Drain(ctx context.Context) (reconcile.Result, error)
	Stats(ctx context.Context) (queue.Stats, error)
	PendingCount(ctx context.Context) (int, error)
}

// Applier применяет изменение к удаленному хранилищу напрямую
type Applier interface {
	Apply(ctx context.Context, m reconcile.Mutation) (entity.Entity, error)
}

// RemoteLister выборка из удаленного хранилища
type RemoteLister interface {
	List(ctx context.Context, kind entity.Kind, f entity.Filter) ([]entity.Entity, error)
}

// Connectivity признак наличия сети
type Connectivity interface {
	Online() bool
}

// Notifier рассылка событий клиентам приложения
type Notifier interface {
	Publish(eventType string, data any)
}

// Deps зависимости менеджера. Store и Queue равны nil, если локальное
// хранилище не открылось: тогда каждая запись сразу уходит на сервер.
type Deps struct {
	Store  LocalStore
	Queue  SyncQueue
	Direct Applier
	Remote RemoteLister
	Conn   Connectivity
	Notify Notifier
}
