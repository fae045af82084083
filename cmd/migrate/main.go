package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"

	"github.com/parksanggeon/smart-recipe-generator/config"
	"github.com/parksanggeon/smart-recipe-generator/internal/database"
	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
)

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS migrations (
	id SERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL UNIQUE,
	applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	dir := flag.String("dir", "migrations", "Directory holding the SQL migrations")
	skipRiver := flag.Bool("skip-river", false, "Do not migrate the job queue schema")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if _, err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Database.Driver == "sqlite" {
		logger.L().Fatal("cmd/migrate only runs against postgres; sqlite databases are auto-migrated at startup")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if _, err := db.Exec(createMigrationsTable); err != nil {
		logger.L().Fatal("failed to create migrations table", zap.Error(err))
	}

	ctx := context.Background()
	if *rollback {
		if err := rollbackLast(ctx, db, *dir); err != nil {
			logger.L().Fatal("rollback failed", zap.Error(err))
		}
		return
	}

	if err := applyAll(ctx, db, *dir); err != nil {
		logger.L().Fatal("migration failed", zap.Error(err))
	}
	if !*skipRiver {
		if err := migrateRiver(ctx, cfg.Database); err != nil {
			logger.L().Fatal("job queue migration failed", zap.Error(err))
		}
	}
	logger.Info("all migrations applied")
}

// migrationFiles lists forward migrations in name order
func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) == ".sql" && !strings.HasSuffix(name, "_rollback.sql") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func applyAll(ctx context.Context, db *sql.DB, dir string) error {
	names, err := migrationFiles(dir)
	if err != nil {
		return err
	}

	for _, name := range names {
		var applied bool
		if err := db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM migrations WHERE name = $1)", name).Scan(&applied); err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if applied {
			logger.Debug("migration already applied", zap.String("name", name))
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		err = inTx(ctx, db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", name, err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (name) VALUES ($1)", name); err != nil {
				return fmt.Errorf("failed to record migration: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		logger.Info("applied migration", zap.String("name", name))
	}
	return nil
}

func rollbackLast(ctx context.Context, db *sql.DB, dir string) error {
	var name string
	err := db.QueryRowContext(ctx, "SELECT name FROM migrations ORDER BY applied_at DESC, id DESC LIMIT 1").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("no migrations to rollback")
	}
	if err != nil {
		return fmt.Errorf("failed to get last migration: %w", err)
	}

	rollbackPath := filepath.Join(dir, strings.TrimSuffix(name, ".sql")+"_rollback.sql")
	content, err := os.ReadFile(rollbackPath)
	if err != nil {
		return fmt.Errorf("failed to read rollback file: %w", err)
	}

	err = inTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute rollback: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM migrations WHERE name = $1", name); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("rolled back migration", zap.String("name", name))
	return nil
}

func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// migrateRiver brings the river job tables up to the version of the linked client
func migrateRiver(ctx context.Context, cfg config.DatabaseConfig) error {
	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("migrate river schema: %w", err)
	}
	for _, v := range res.Versions {
		logger.Info("applied river migration", zap.Int("version", v.Version))
	}
	return nil
}
