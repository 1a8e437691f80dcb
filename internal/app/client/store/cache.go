package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anchorview/internal/app/client/proxy"
)

// Match ищет ответ по ключу во всех пулах, предпочитая более свежий
func (s *SQLiteStorage) Match(ctx context.Context, key string) (*proxy.Entry, error) {
	var (
		e      proxy.Entry
		header string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT status, header, body, stored_at FROM http_cache
		WHERE key = ?
		ORDER BY stored_at DESC
		LIMIT 1
	`, key).Scan(&e.Status, &header, &e.Body, &e.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, proxy.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения кэша: %w", err)
	}

	if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
		return nil, fmt.Errorf("ошибка разбора заголовков кэша: %w", err)
	}
	if e.Body == nil {
		e.Body = []byte{}
	}

	return &e, nil
}

// PutResponse сохраняет ответ в пул
func (s *SQLiteStorage) PutResponse(ctx context.Context, pool, key string, e *proxy.Entry) error {
	header := e.Header
	if header == nil {
		header = http.Header{}
	}
	raw, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("ошибка сериализации заголовков: %w", err)
	}

	storedAt := e.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	body := e.Body
	if body == nil {
		body = []byte{}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO http_cache (pool, key, status, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(pool, key) DO UPDATE SET
			status = excluded.status,
			header = excluded.header,
			body = excluded.body,
			stored_at = excluded.stored_at
	`, pool, key, e.Status, string(raw), body, storedAt.UTC())
	if err != nil {
		return fmt.Errorf("ошибка записи в кэш: %w", err)
	}
	return nil
}

// Pools имена всех непустых пулов
func (s *SQLiteStorage) Pools(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT pool FROM http_cache ORDER BY pool`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения пулов кэша: %w", err)
	}
	defer rows.Close()

	var pools []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// DeletePool удаляет пул целиком
func (s *SQLiteStorage) DeletePool(ctx context.Context, pool string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM http_cache WHERE pool = ?`, pool); err != nil {
		return fmt.Errorf("ошибка удаления пула %s: %w", pool, err)
	}
	return nil
}

// HTTPCache возвращает представление хранилища как proxy.Cache
func (s *SQLiteStorage) HTTPCache() proxy.Cache {
	return httpCache{s}
}

// httpCache переименовывает Put, который у SQLiteStorage занят под сущности
type httpCache struct {
	s *SQLiteStorage
}

func (c httpCache) Match(ctx context.Context, key string) (*proxy.Entry, error) {
	return c.s.Match(ctx, key)
}

func (c httpCache) Put(ctx context.Context, pool, key string, e *proxy.Entry) error {
	return c.s.PutResponse(ctx, pool, key, e)
}

func (c httpCache) Pools(ctx context.Context) ([]string, error) {
	return c.s.Pools(ctx)
}

func (c httpCache) DeletePool(ctx context.Context, pool string) error {
	return c.s.DeletePool(ctx, pool)
}
