package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
)

const (
	migrationMaxAttempts = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

// errRetryMigration signals a transient failure; the caller backs off and
// reruns the whole migration transaction.
var errRetryMigration = errors.New("retry migration")

// runMigrations applies the .sql files under the configured migrations
// directory in lexical order, recording each applied version in
// schema_migrations. Each file runs in its own serializable transaction and
// is retried on serialization or lock failures.
func runMigrations(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	migrations, dir, err := listMigrationFiles(cfg.MigrationDir)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
                version TEXT PRIMARY KEY,
                applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		return err
	}

	switch command {
	case "status":
		for _, name := range migrations {
			marker := "[ ]"
			if _, ok := applied[name]; ok {
				marker = "[x]"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return nil
	case "up", "":
		pending := 0
		for _, name := range migrations {
			if _, ok := applied[name]; ok {
				continue
			}
			pending++

			contents, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("read migration %s: %w", name, err)
			}

			if err := applyMigration(ctx, conn, name, string(contents)); err != nil {
				return err
			}
			slog.Info("applied migration", "version", name)
		}
		if pending == 0 {
			slog.Info("no migrations to apply")
		}
		return nil
	case "down":
		return errors.New("down migrations are not supported yet")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

// listMigrationFiles returns the sorted .sql file names under dir, resolving
// a relative dir against the working directory.
func listMigrationFiles(dir string) ([]string, string, error) {
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("determine working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return names, dir, nil
}

func appliedMigrations(ctx context.Context, conn *pgxpool.Conn) (map[string]struct{}, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("fetch applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}

	return applied, nil
}

func applyMigration(ctx context.Context, conn *pgxpool.Conn, name, contents string) error {
	backoff := migrationBaseBackoff
	for attempt := 1; ; attempt++ {
		err := migrationTx(ctx, conn, name, contents)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errRetryMigration) || attempt >= migrationMaxAttempts {
			if errors.Is(err, errRetryMigration) {
				return fmt.Errorf("apply migration %s: exceeded max attempts (%d)", name, migrationMaxAttempts)
			}
			return err
		}

		slog.Warn("transient migration failure, retrying",
			"version", name,
			"attempt", attempt,
			"max_attempts", migrationMaxAttempts,
			"error", err,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if backoff *= 2; backoff > migrationMaxBackoff {
			backoff = migrationMaxBackoff
		}
	}
}

// migrationTx runs one migration file and its schema_migrations bookkeeping
// inside a single serializable transaction. Transient failures are wrapped
// with errRetryMigration so the caller can rerun the transaction.
func migrationTx(ctx context.Context, conn *pgxpool.Conn, name, contents string) error {
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin migration transaction for %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, contents); err != nil {
		return wrapMigrationErr(fmt.Sprintf("apply migration %s", name), err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
		return wrapMigrationErr(fmt.Sprintf("record migration %s", name), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapMigrationErr(fmt.Sprintf("commit migration %s", name), err)
	}

	return nil
}

func wrapMigrationErr(op string, err error) error {
	if isTransientPgErr(err) {
		return fmt.Errorf("%s: %w: %w", op, errRetryMigration, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransientPgErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxClosed) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}

	return false
}
