// Package migrations applies the embedded schema for the configured driver.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`

// Run applies every pending migration in file-name order. Each file runs in
// its own transaction together with its schema_migrations row.
func Run(ctx context.Context, conn database.Connection) error {
	dir, err := dirFor(conn.Driver())
	if err != nil {
		return err
	}

	pending, err := Pending(ctx, conn)
	if err != nil {
		return err
	}

	uow := database.NewUnitOfWork(conn)
	for _, name := range pending {
		body, err := fs.ReadFile(files, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		txCtx, err := uow.Begin(ctx)
		if err != nil {
			return err
		}
		exec := database.BoundExecutorFromContext(txCtx, conn)
		if _, err := exec.Exec(txCtx, string(body)); err != nil {
			_ = uow.Rollback(txCtx)
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := exec.Exec(txCtx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			version(name), time.Now().UnixMilli()); err != nil {
			_ = uow.Rollback(txCtx)
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if err := uow.Commit(txCtx); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", name, err)
		}
	}
	return nil
}

// Pending lists the migration files not yet applied.
func Pending(ctx context.Context, conn database.Connection) ([]string, error) {
	dir, err := dirFor(conn.Driver())
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entries, err := files.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var pending []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") && !applied[version(name)] {
			pending = append(pending, name)
		}
	}
	sort.Strings(pending)
	return pending, nil
}

func dirFor(driver database.Driver) (string, error) {
	switch driver {
	case database.DriverSQLite:
		return "sqlite", nil
	case database.DriverPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

func version(name string) string {
	return strings.TrimSuffix(name, ".up.sql")
}
