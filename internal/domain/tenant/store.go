// Package tenant ограничивает доступ к серверному хранилищу одной компанией.
// Компания записи определяется по цепочке родителей:
// тест -> точка -> проект -> компания.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile"
)

var (
	ErrForbidden    = errors.New("record belongs to another company")
	ErrNoCompany    = errors.New("company is not set")
	errUnknownOwner = errors.New("unsupported entity")
)

type contextKey struct{}

// WithCompany кладет id компании пользователя в контекст запроса
func WithCompany(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, contextKey{}, companyID)
}

// CompanyID возвращает id компании из контекста запроса
func CompanyID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Store хранилище, над которым работает ограничение
type Store interface {
	reconcile.RemoteStore
	List(ctx context.Context, kind entity.Kind, f entity.Filter) ([]entity.Entity, error)
}

// ScopedStore видит только записи своей компании. Чужие записи для чтения,
// изменения и удаления выглядят отсутствующими, а создание записи в чужой
// компании отклоняется с ErrForbidden.
type ScopedStore struct {
	store     Store
	companyID string

	mu sync.Mutex
	// owners: kind/id -> компания; кэш живет столько же, сколько ScopedStore
	owners map[string]string
}

// Scope создает хранилище, ограниченное компанией companyID.
// Создается на запрос.
func Scope(store Store, companyID string) *ScopedStore {
	return &ScopedStore{
		store:     store,
		companyID: companyID,
		owners:    make(map[string]string),
	}
}

// FromContext ограничивает store компанией из контекста запроса
func FromContext(ctx context.Context, store Store) (*ScopedStore, error) {
	companyID, ok := CompanyID(ctx)
	if !ok {
		return nil, ErrNoCompany
	}
	return Scope(store, companyID), nil
}

func (s *ScopedStore) Find(ctx context.Context, kind entity.Kind, m reconcile.Matcher) (entity.Entity, error) {
	e, err := s.store.Find(ctx, kind, m)
	if err != nil {
		return nil, err
	}
	if err := s.visible(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *ScopedStore) Create(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	if err := s.writable(ctx, e); err != nil {
		return nil, err
	}

	saved, err := s.store.Create(ctx, e)
	if err != nil {
		return nil, err
	}
	s.remember(saved.EntityKind(), saved.EntityID(), s.companyID)
	return saved, nil
}

func (s *ScopedStore) Update(ctx context.Context, id string, e entity.Entity) (entity.Entity, error) {
	existing, err := s.Find(ctx, e.EntityKind(), reconcile.ByID(id))
	if err != nil {
		return nil, err
	}
	if err := s.writable(ctx, e); err != nil {
		return nil, err
	}

	saved, err := s.store.Update(ctx, existing.EntityID(), e)
	if err != nil {
		return nil, err
	}
	s.remember(saved.EntityKind(), saved.EntityID(), s.companyID)
	return saved, nil
}

func (s *ScopedStore) Delete(ctx context.Context, kind entity.Kind, id string) error {
	if _, err := s.Find(ctx, kind, reconcile.ByID(id)); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, kind, id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.owners, string(kind)+"/"+id)
	s.mu.Unlock()
	return nil
}

// List возвращает только записи компании. Фильтр по другой компании дает
// пустой список.
func (s *ScopedStore) List(ctx context.Context, kind entity.Kind, f entity.Filter) ([]entity.Entity, error) {
	if f.CompanyID != "" && f.CompanyID != s.companyID {
		return []entity.Entity{}, nil
	}
	if ownedDirectly(kind) {
		f.CompanyID = s.companyID
	}

	list, err := s.store.List(ctx, kind, f)
	if err != nil {
		return nil, err
	}

	out := make([]entity.Entity, 0, len(list))
	for _, e := range list {
		owner, err := s.owner(ctx, e)
		if err != nil {
			return nil, err
		}
		if owner == s.companyID {
			out = append(out, e)
		}
	}
	return out, nil
}

// visible скрывает чужие записи как отсутствующие
func (s *ScopedStore) visible(ctx context.Context, e entity.Entity) error {
	owner, err := s.owner(ctx, e)
	if err != nil {
		return err
	}
	if owner != s.companyID {
		return reconcile.ErrNotFound
	}
	s.remember(e.EntityKind(), e.EntityID(), owner)
	return nil
}

func (s *ScopedStore) writable(ctx context.Context, e entity.Entity) error {
	owner, err := s.owner(ctx, e)
	if err != nil {
		return err
	}
	if owner != s.companyID {
		return fmt.Errorf("%w: %s %s", ErrForbidden, e.EntityKind(), e.EntityID())
	}
	return nil
}

func ownedDirectly(kind entity.Kind) bool {
	switch kind {
	case entity.KindCompany, entity.KindUser, entity.KindProject, entity.KindFile:
		return true
	}
	return false
}

// owner компания, которой принадлежит запись. Пустая строка - владелец
// не найден (например, родительская точка еще не синхронизирована).
func (s *ScopedStore) owner(ctx context.Context, e entity.Entity) (string, error) {
	switch v := e.(type) {
	case *entity.Company:
		return v.ID, nil
	case *entity.User:
		return v.CompanyID, nil
	case *entity.Project:
		return v.CompanyID, nil
	case *entity.File:
		return v.CompanyID, nil
	case *entity.Location:
		if v.CompanyID != "" {
			return v.CompanyID, nil
		}
		return s.ownerOf(ctx, entity.KindProject, v.ProjectID)
	case *entity.FloorPlan:
		return s.ownerOf(ctx, entity.KindProject, v.ProjectID)
	case *entity.AnchorPoint:
		return s.ownerOf(ctx, entity.KindProject, v.ProjectID)
	case *entity.AnchorTest:
		return s.ownerOf(ctx, entity.KindAnchorPoint, v.PontoID)
	default:
		return "", fmt.Errorf("%w %T", errUnknownOwner, e)
	}
}

func (s *ScopedStore) ownerOf(ctx context.Context, kind entity.Kind, id string) (string, error) {
	if id == "" {
		return "", nil
	}

	key := string(kind) + "/" + id
	s.mu.Lock()
	owner, ok := s.owners[key]
	s.mu.Unlock()
	if ok {
		return owner, nil
	}

	parent, err := s.store.Find(ctx, kind, reconcile.ByID(id))
	if errors.Is(err, reconcile.ErrNotFound) {
		// не кэшируется: родитель может появиться позже в том же пакете
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve owner of %s: %w", key, err)
	}

	if owner, err = s.owner(ctx, parent); err != nil {
		return "", err
	}
	s.remember(kind, id, owner)
	return owner, nil
}

func (s *ScopedStore) remember(kind entity.Kind, id, owner string) {
	s.mu.Lock()
	s.owners[string(kind)+"/"+id] = owner
	s.mu.Unlock()
}
