package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/queue"
	"anchorview/internal/domain/reconcile"
)

// InsertQueueItem добавляет элемент в конец очереди
func (s *SQLiteStorage) InsertQueueItem(ctx context.Context, item *queue.Item) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_queue (id, tbl, operation, data, status, error, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, string(item.Table), string(item.Operation), string(item.Data), string(item.Status),
		item.Error, item.Attempts, item.CreatedAt.UTC(), item.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("ошибка добавления в очередь: %w", err)
	}

	seq, err := res.LastInsertId()
	if err == nil {
		item.Seq = seq
	}
	return nil
}

// ListQueueItems возвращает элементы с указанными статусами в порядке вставки.
// Без статусов возвращается вся очередь.
func (s *SQLiteStorage) ListQueueItems(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error) {
	query := `SELECT seq, id, tbl, operation, data, status, error, attempts, created_at, updated_at FROM sync_queue`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (?` + strings.Repeat(`, ?`, len(statuses)-1) + `)`
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения очереди: %w", err)
	}
	defer rows.Close()

	var items []*queue.Item
	for rows.Next() {
		var (
			it                     queue.Item
			table, op, data, state string
		)
		if err := rows.Scan(&it.Seq, &it.ID, &table, &op, &data, &state, &it.Error, &it.Attempts,
			&it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения элемента очереди: %w", err)
		}
		it.Table = entity.Kind(table)
		it.Operation = reconcile.Operation(op)
		it.Data = []byte(data)
		it.Status = queue.Status(state)
		items = append(items, &it)
	}

	return items, rows.Err()
}

// UpdateQueueStatus меняет статус элемента
func (s *SQLiteStorage) UpdateQueueStatus(ctx context.Context, id string, status queue.Status, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sync_queue
		SET status = ?, error = ?,
		    attempts = attempts + CASE WHEN ? = 'syncing' THEN 1 ELSE 0 END,
		    updated_at = ?
		WHERE id = ?
	`, string(status), errMsg, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса очереди: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", queue.ErrItemNotFound, id)
	}
	return nil
}

// ResetUnfinished возвращает в pending неудачные элементы и элементы, прогон
// которых прервался на статусе syncing
func (s *SQLiteStorage) ResetUnfinished(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = ?, updated_at = ? WHERE status IN (?, ?)`,
		string(queue.StatusPending), time.Now().UTC(), string(queue.StatusFailed), string(queue.StatusSyncing))
	if err != nil {
		return 0, fmt.Errorf("ошибка сброса незавершенных элементов: %w", err)
	}

	n, err := res.RowsAffected()
	return int(n), err
}

// CountByStatus количество элементов по статусам
func (s *SQLiteStorage) CountByStatus(ctx context.Context) (map[queue.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM sync_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчета очереди: %w", err)
	}
	defer rows.Close()

	counts := make(map[queue.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[queue.Status(status)] = n
	}

	return counts, rows.Err()
}
