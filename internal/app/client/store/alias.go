package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"anchorview/internal/domain/entity"
)

// ResolveAlias возвращает серверный id точки, сохраненный при прошлой синхронизации,
// или localID, если точка не переназначалась
func (s *SQLiteStorage) ResolveAlias(ctx context.Context, localID string) (string, error) {
	var remoteID string
	err := s.db.QueryRowContext(ctx,
		`SELECT remote_id FROM id_aliases WHERE local_id = ?`, localID).Scan(&remoteID)
	if errors.Is(err, sql.ErrNoRows) {
		return localID, nil
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения соответствия id %s: %w", localID, err)
	}
	return remoteID, nil
}

// SaveAlias запоминает, что локальная точка localID на сервере хранится как remoteID
func (s *SQLiteStorage) SaveAlias(ctx context.Context, localID, remoteID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO id_aliases (local_id, remote_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(local_id) DO UPDATE SET remote_id = excluded.remote_id
	`, localID, remoteID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ошибка сохранения соответствия id %s: %w", localID, err)
	}
	return nil
}

// RepointTests переносит локальные тесты точки fromPointID на точку toPointID
func (s *SQLiteStorage) RepointTests(ctx context.Context, fromPointID, toPointID string) (int, error) {
	tests, err := s.List(ctx, entity.KindAnchorTest, entity.Filter{ParentID: fromPointID, IncludeArchived: true})
	if err != nil {
		return 0, err
	}

	for _, e := range tests {
		test, ok := e.(*entity.AnchorTest)
		if !ok {
			continue
		}
		test.PontoID = toPointID
		if err := s.Put(ctx, test); err != nil {
			return 0, err
		}
	}
	return len(tests), nil
}
