package reconcile

import (
	"context"

	"anchorview/internal/domain/entity"
)

// Matcher критерий поиска записи в удаленном хранилище. Условия объединяются
// через ИЛИ: совпадение по ID либо по естественному ключу (ProjectID, NumeroPonto).
// При нескольких совпадениях предпочтение отдается совпадению по ID.
type Matcher struct {
	ID          string `json:"id,omitempty"`
	ProjectID   string `json:"projectId,omitempty"`
	NumeroPonto *int   `json:"numeroPonto,omitempty"`
}

// ByID критерий поиска только по идентификатору
func ByID(id string) Matcher {
	return Matcher{ID: id}
}

// HasNaturalKey сообщает, задан ли естественный ключ точки
func (m Matcher) HasNaturalKey() bool {
	return m.ProjectID != "" && m.NumeroPonto != nil
}

// RemoteStore удаленное авторитетное хранилище
type RemoteStore interface {
	// Find возвращает запись по критерию или ErrNotFound
	Find(ctx context.Context, kind entity.Kind, m Matcher) (entity.Entity, error)
	// Create создает запись; если ID пустой, его назначает хранилище
	Create(ctx context.Context, e entity.Entity) (entity.Entity, error)
	// Update перезаписывает запись с указанным id
	Update(ctx context.Context, id string, e entity.Entity) (entity.Entity, error)
	// Delete удаляет запись; отсутствие записи возвращается как ErrNotFound
	Delete(ctx context.Context, kind entity.Kind, id string) error
}
