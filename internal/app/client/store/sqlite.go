// Package store - локальное долговременное хранилище клиента на SQLite:
// зеркало серверных сущностей, очередь синхронизации и HTTP-кэш.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage хранилище клиента. Создается явно и передается всем компонентам,
// которым оно нужно; закрывается вызывающей стороной.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage открывает (или создает) базу по пути path. ":memory:" - база в памяти.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	if !strings.HasPrefix(path, ":memory:") {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}
	// одно соединение: база в памяти живет только в нем, а SQLite все равно
	// сериализует запись
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	storage := &SQLiteStorage{db: db}

	// Создаем таблицы
	if err := storage.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации таблиц: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entities (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			company_id TEXT NOT NULL DEFAULT '',
			project_id TEXT NOT NULL DEFAULT '',
			parent_id TEXT NOT NULL DEFAULT '',
			archived BOOLEAN NOT NULL DEFAULT 0,
			data TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (kind, id)
		);

		CREATE INDEX IF NOT EXISTS idx_entities_project ON entities(kind, project_id);
		CREATE INDEX IF NOT EXISTS idx_entities_parent ON entities(kind, parent_id);

		CREATE TABLE IF NOT EXISTS sync_queue (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			tbl TEXT NOT NULL,
			operation TEXT NOT NULL,
			data TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			attempts INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status);

		CREATE TABLE IF NOT EXISTS id_aliases (
			local_id TEXT PRIMARY KEY,
			remote_id TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS http_cache (
			pool TEXT NOT NULL,
			key TEXT NOT NULL,
			status INTEGER NOT NULL,
			header TEXT NOT NULL,
			body BLOB NOT NULL,
			stored_at DATETIME NOT NULL,
			PRIMARY KEY (pool, key)
		);
	`)

	return err
}

// Ping проверяет доступность базы
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
