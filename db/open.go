// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/bricesuazo/eboto-sub002/cliparse"
)

// Open connects to the configured backend and verifies the connection.
func Open(ctx context.Context, cfg cliparse.Config) (*sql.DB, error) {
	var conn *sql.DB
	var err error

	switch cfg.DatabaseType {
	case cliparse.DatabasePostgres:
		conn, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		conn.SetMaxIdleConns(10)
		conn.SetMaxOpenConns(50)
		conn.SetConnMaxLifetime(time.Hour)
	case cliparse.DatabaseSQLite:
		conn, err = OpenSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}

// OpenSQLite opens a modernc sqlite database with foreign keys enforced.
// SQLite allows a single writer, so the pool is pinned to one connection;
// callers must drain *sql.Rows before issuing the next query.
func OpenSQLite(dsn string) (*sql.DB, error) {
	if !strings.Contains(dsn, "_pragma=foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	return conn, nil
}
