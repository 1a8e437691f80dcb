// Package reconciletest содержит удаленное хранилище в памяти для тестов.
package reconciletest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile"

	"github.com/google/uuid"
)

// MemoryStore реализует reconcile.RemoteStore в памяти. Записи хранятся в JSON,
// чтобы вызывающая сторона не могла изменить их по ссылке.
type MemoryStore struct {
	mu       sync.Mutex
	records  map[entity.Kind]map[string][]byte
	order    map[entity.Kind][]string
	failures map[string]error
	Calls    []string
}

// NewMemoryStore создает пустое хранилище
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[entity.Kind]map[string][]byte),
		order:    make(map[entity.Kind][]string),
		failures: make(map[string]error),
	}
}

// FailOn заставляет операцию op ("find", "create", "update", "delete") над kind возвращать err.
// nil снимает ошибку.
func (s *MemoryStore) FailOn(op string, kind entity.Kind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := op + ":" + string(kind)
	if err == nil {
		delete(s.failures, key)
		return
	}
	s.failures[key] = err
}

// Seed кладет запись напрямую, минуя сверку
func (s *MemoryStore) Seed(e entity.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(e)
}

func (s *MemoryStore) Find(_ context.Context, kind entity.Kind, m reconcile.Matcher) (entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("find", kind); err != nil {
		return nil, err
	}

	if data, ok := s.records[kind][m.ID]; ok && m.ID != "" {
		return entity.Decode(kind, data)
	}

	if kind == entity.KindAnchorPoint && m.HasNaturalKey() {
		for _, id := range s.order[kind] {
			e, err := entity.Decode(kind, s.records[kind][id])
			if err != nil {
				return nil, err
			}
			p := e.(*entity.AnchorPoint)
			if p.ProjectID == m.ProjectID && p.NumeroPonto == *m.NumeroPonto {
				return p, nil
			}
		}
	}

	return nil, reconcile.ErrNotFound
}

func (s *MemoryStore) Create(_ context.Context, e entity.Entity) (entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("create", e.EntityKind()); err != nil {
		return nil, err
	}

	if e.EntityID() == "" {
		e.SetEntityID(uuid.NewString())
	}
	if _, ok := s.records[e.EntityKind()][e.EntityID()]; ok {
		return nil, fmt.Errorf("duplicate %s id %s", e.EntityKind(), e.EntityID())
	}
	return s.put(e)
}

func (s *MemoryStore) Update(_ context.Context, id string, e entity.Entity) (entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("update", e.EntityKind()); err != nil {
		return nil, err
	}

	if _, ok := s.records[e.EntityKind()][id]; !ok {
		return nil, reconcile.ErrNotFound
	}
	e.SetEntityID(id)
	return s.put(e)
}

func (s *MemoryStore) Delete(_ context.Context, kind entity.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("delete", kind); err != nil {
		return err
	}

	if _, ok := s.records[kind][id]; !ok {
		return reconcile.ErrNotFound
	}
	delete(s.records[kind], id)
	ids := s.order[kind][:0]
	for _, v := range s.order[kind] {
		if v != id {
			ids = append(ids, v)
		}
	}
	s.order[kind] = ids
	return nil
}

// List возвращает записи типа kind в порядке создания
func (s *MemoryStore) List(_ context.Context, kind entity.Kind, f entity.Filter) ([]entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("list", kind); err != nil {
		return nil, err
	}

	out := make([]entity.Entity, 0, len(s.order[kind]))
	for _, id := range s.order[kind] {
		e, err := entity.Decode(kind, s.records[kind][id])
		if err != nil {
			return nil, err
		}
		if !f.IncludeArchived && entity.IsArchived(e) {
			continue
		}
		if f.Match(e.Scope()) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Get возвращает запись по id или nil
func (s *MemoryStore) Get(kind entity.Kind, id string) entity.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[kind][id]
	if !ok {
		return nil
	}
	e, err := entity.Decode(kind, data)
	if err != nil {
		return nil
	}
	return e
}

// Count возвращает количество записей типа kind
func (s *MemoryStore) Count(kind entity.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[kind])
}

func (s *MemoryStore) check(op string, kind entity.Kind) error {
	s.Calls = append(s.Calls, op+":"+string(kind))
	return s.failures[op+":"+string(kind)]
}

func (s *MemoryStore) put(e entity.Entity) (entity.Entity, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	kind := e.EntityKind()
	if s.records[kind] == nil {
		s.records[kind] = make(map[string][]byte)
	}
	if _, ok := s.records[kind][e.EntityID()]; !ok {
		s.order[kind] = append(s.order[kind], e.EntityID())
	}
	s.records[kind][e.EntityID()] = data
	return entity.Decode(kind, data)
}
