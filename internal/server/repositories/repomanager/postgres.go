// Package repomanager provides RepositoryManager implementations: one over
// PostgreSQL (pgx pool exposed through database/sql, goose migrations) and
// one fully in memory.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hamarchia/ClinicSystem/internal/dbx"
	"github.com/hamarchia/ClinicSystem/internal/server/migrations"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/patients"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/prescriptions"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/shifts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	db    *sql.DB
	close func()
}

// Shifts returns a shifts.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Shifts(db dbx.DBTX) shifts.Repository {
	return shifts.NewPostgresRepository(db)
}

// Patients returns a patients.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Patients(db dbx.DBTX) patients.Repository {
	return patients.NewPostgresRepository(db)
}

// Prescriptions returns a prescriptions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Prescriptions(db dbx.DBTX) prescriptions.Repository {
	return prescriptions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Conn() dbx.DBTX {
	return m.db
}

// RunInTx runs fn in a read-committed transaction.
func (m *PostgresRepositoryManager) RunInTx(ctx context.Context, fn dbx.TxFunc) error {
	return dbx.SQLTxRunner{DB: m.db}.RunInTx(ctx, fn)
}

func (m *PostgresRepositoryManager) Close() error {
	err := m.db.Close()
	if m.close != nil {
		m.close()
	}
	return err
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the managed connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// NewPostgresRepositoryManager wraps an existing *sql.DB.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

// newPool is a seam for tests.
var newPool = pgxpool.NewWithConfig

// OpenPostgres creates a pgx connection pool for dsn limited to maxConns
// connections and exposes it as *sql.DB for the repositories.
func OpenPostgres(ctx context.Context, dsn string, maxConns int32) (*PostgresRepositoryManager, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db config error: %w", err)
	}
	cfg.MaxConns = maxConns

	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	return &PostgresRepositoryManager{db: stdlib.OpenDBFromPool(pool), close: pool.Close}, nil
}
