//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	logx "boostbot/pkg/logx"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var schemaSQL string

const insertSQL = `INSERT INTO notifications(at, kind, key, chat_id, chars) VALUES(?,?,?,?,?)`

type sqliteStore struct {
	db     *sql.DB
	insert *sql.Stmt
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path, err := preparePath("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single connection: the audit log has one writer and no readers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	if cfg.BusyTimeout > 0 {
		pragmas = append(pragmas,
			fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	for _, p := range pragmas {
		_, _ = db.Exec(p)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	ins, err := db.Prepare(insertSQL)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("sqlite schema ready", logx.String("path", path))
	return &sqliteStore{db: db, insert: ins}, nil
}

func (s *sqliteStore) Append(ctx context.Context, e Entry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.insert.ExecContext(ctx,
		e.At.Format(time.RFC3339Nano), e.Kind, nullableKey(e.Key), e.ChatID, e.Chars)
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	_ = s.insert.Close()
	return s.db.Close()
}

// nullableKey stores blank keys as NULL so ad-hoc queries can filter on
// key IS NOT NULL.
func nullableKey(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
