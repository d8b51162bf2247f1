package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"bookclub_bot/internal/model"
	"bookclub_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

const (
	kvTable       = "kv_entries"
	progressTable = "progress_log"
)

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := sq.Select("value").From(kvTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var value []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value.
func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	now := time.Now().UTC().Format(timeLayout)
	query, args, err := sq.Insert(kvTable).
		Columns("key", "value", "updated_at").
		Values(key, value, now).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (s *SQLite) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sq.Delete(kvTable).Where(sq.Eq{"key": keys}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}

// Clear removes all stored keys and progress entries.
func (s *SQLite) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{kvTable, progressTable} {
		query, args, err := sq.Delete(table).ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// RecordProgress appends a progress entry for title.
func (s *SQLite) RecordProgress(ctx context.Context, title string, percent int, at time.Time) (model.ProgressEntry, error) {
	recorded := at.UTC().Format(timeLayout)
	query, args, err := sq.Insert(progressTable).
		Columns("title", "percent", "recorded_at").
		Values(title, percent, recorded).
		ToSql()
	if err != nil {
		return model.ProgressEntry{}, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.ProgressEntry{}, fmt.Errorf("insert progress: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ProgressEntry{}, fmt.Errorf("last insert id: %w", err)
	}

	entry := model.ProgressEntry{ID: id, Title: title, Percent: percent}
	entry.RecordedAt, _ = time.Parse(timeLayout, recorded)
	return entry, nil
}

// ListProgress returns up to limit entries for title, newest first.
// A limit of zero or less returns all of them.
func (s *SQLite) ListProgress(ctx context.Context, title string, limit int) ([]model.ProgressEntry, error) {
	b := sq.Select("id", "title", "percent", "recorded_at").
		From(progressTable).
		Where(sq.Eq{"title": title}).
		OrderBy("id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ProgressEntry
	for rows.Next() {
		var e model.ProgressEntry
		var recorded string
		if err := rows.Scan(&e.ID, &e.Title, &e.Percent, &recorded); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		e.RecordedAt, _ = time.Parse(timeLayout, recorded)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
