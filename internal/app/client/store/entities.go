package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"anchorview/internal/domain/entity"
)

// Put сохраняет сущность (upsert по типу и id). Запись одной сущности атомарна.
func (s *SQLiteStorage) Put(ctx context.Context, e entity.Entity) error {
	if e.EntityID() == "" {
		return fmt.Errorf("ошибка сохранения %s: пустой id", e.EntityKind())
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("ошибка сериализации %s: %w", e.EntityKind(), err)
	}

	scope := e.Scope()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (kind, id, company_id, project_id, parent_id, archived, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			company_id = excluded.company_id,
			project_id = excluded.project_id,
			parent_id = excluded.parent_id,
			archived = excluded.archived,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, string(e.EntityKind()), e.EntityID(), scope.CompanyID, scope.ProjectID, scope.ParentID,
		entity.IsArchived(e), string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ошибка сохранения %s %s: %w", e.EntityKind(), e.EntityID(), err)
	}

	return nil
}

// Get возвращает сущность по типу и id
func (s *SQLiteStorage) Get(ctx context.Context, kind entity.Kind, id string) (entity.Entity, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM entities WHERE kind = ? AND id = ?`, string(kind), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения %s: %w", kind, err)
	}

	return entity.Decode(kind, []byte(data))
}

// List возвращает сущности типа kind, подходящие под фильтр, в порядке изменения
func (s *SQLiteStorage) List(ctx context.Context, kind entity.Kind, f entity.Filter) ([]entity.Entity, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT data FROM entities WHERE kind = ?`)
	args := []any{string(kind)}

	if f.CompanyID != "" {
		query.WriteString(` AND company_id = ?`)
		args = append(args, f.CompanyID)
	}
	if f.ProjectID != "" {
		query.WriteString(` AND project_id = ?`)
		args = append(args, f.ProjectID)
	}
	if f.ParentID != "" {
		query.WriteString(` AND parent_id = ?`)
		args = append(args, f.ParentID)
	}
	if !f.IncludeArchived {
		query.WriteString(` AND archived = 0`)
	}
	query.WriteString(` ORDER BY updated_at, id`)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка %s: %w", kind, err)
	}
	defer rows.Close()

	var raw []string
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("ошибка чтения %s: %w", kind, err)
		}
		raw = append(raw, data)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]entity.Entity, 0, len(raw))
	for _, data := range raw {
		e, err := entity.Decode(kind, []byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, nil
}

// Delete удаляет сущность; удаление отсутствующей записи не ошибка
func (s *SQLiteStorage) Delete(ctx context.Context, kind entity.Kind, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return fmt.Errorf("ошибка удаления %s %s: %w", kind, id, err)
	}
	return nil
}

// Export возвращает все сущности хранилища по типам, включая архивные
func (s *SQLiteStorage) Export(ctx context.Context) (map[entity.Kind][]entity.Entity, error) {
	out := make(map[entity.Kind][]entity.Entity, len(entity.Kinds))
	for _, kind := range entity.Kinds {
		list, err := s.List(ctx, kind, entity.Filter{IncludeArchived: true})
		if err != nil {
			return nil, err
		}
		out[kind] = list
	}
	return out, nil
}
