package reconcile

import (
	"context"
	"sync"
	"time"
)

// Aliases хранит соответствие локального id точки серверному. Клиент хранит его
// в локальной базе, чтобы тесты из следующих прогонов ссылались на серверную точку.
type Aliases interface {
	// ResolveAlias возвращает серверный id или localID, если соответствия нет
	ResolveAlias(ctx context.Context, localID string) (string, error)
	SaveAlias(ctx context.Context, localID, remoteID string) error
}

// Option настраивает Reconciler
type Option func(*Reconciler)

// WithAliases задает хранилище соответствий id вместо хранения в памяти
func WithAliases(a Aliases) Option {
	return func(r *Reconciler) {
		if a != nil {
			r.aliases = a
		}
	}
}

// WithClock задает источник времени для значений по умолчанию
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

type memoryAliases struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemoryAliases соответствия id, которые живут только в памяти процесса
func NewMemoryAliases() Aliases {
	return &memoryAliases{m: make(map[string]string)}
}

func (a *memoryAliases) ResolveAlias(_ context.Context, localID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.m[localID]; ok {
		return id, nil
	}
	return localID, nil
}

func (a *memoryAliases) SaveAlias(_ context.Context, localID, remoteID string) error {
	a.mu.Lock()
	a.m[localID] = remoteID
	a.mu.Unlock()
	return nil
}
