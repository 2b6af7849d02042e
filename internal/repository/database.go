package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// NewDB opens the store. dbType is "sqlite" (dsn is a file path) or
// "postgres" (dsn is a connection URL).
func NewDB(dbType, dsn string, logger *zap.Logger) (*sqlx.DB, error) {
	driver := "sqlite"
	if dbType == "postgres" {
		driver = "postgres"
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// A single writer keeps sqlite transactions from contending.
		db.SetMaxOpenConns(1)
	}

	logger.Debug("Database opened", zap.String("driver", driver), zap.String("dsn", dsn))
	return db, nil
}

// MigrateDB creates the training run tables.
func MigrateDB(db *sqlx.DB, logger *zap.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	var driver database.Driver
	switch db.DriverName() {
	case "postgres":
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	default:
		driver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to get database instance for migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.DriverName(), driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// m.Close would close db as well; the caller owns it.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Database migrations applied")
	return nil
}

func tableExists(ctx context.Context, db *sqlx.DB, table string) (bool, error) {
	var query string
	switch db.DriverName() {
	case "postgres":
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`
	default:
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	}

	var n int
	if err := db.GetContext(ctx, &n, db.Rebind(query), table); err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return n > 0, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
