package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/rufm/ledger/internal/repository"
)

// MigrationError reports that the schema could not be brought to the
// expected version.
type MigrationError struct {
	Version int
	Err     error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration to schema version %d failed: %v", e.Version, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

type migration struct {
	version  int
	postgres []string
	sqlite   []string
}

func (m migration) statements(dialect repository.Dialect) []string {
	if dialect == repository.Postgres {
		return m.postgres
	}
	return m.sqlite
}

// Account type codes stored in accounts.account_type: 0=Asset, 1=Expense, 2=Revenue.
var migrations = []migration{
	{
		version: 1,
		postgres: []string{
			`CREATE TABLE IF NOT EXISTS accounts (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				account_type SMALLINT NOT NULL,
				initial_balance BIGINT NOT NULL DEFAULT 0
			)`,
			`CREATE TABLE IF NOT EXISTS transactions (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				source_account_id BIGINT NOT NULL REFERENCES accounts (id),
				destination_account_id BIGINT NOT NULL REFERENCES accounts (id),
				amount BIGINT NOT NULL,
				date DATE NOT NULL
			)`,
		},
		sqlite: []string{
			`CREATE TABLE IF NOT EXISTS accounts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE,
				account_type INTEGER NOT NULL,
				initial_balance INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE TABLE IF NOT EXISTS transactions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				source_account_id INTEGER NOT NULL REFERENCES accounts (id),
				destination_account_id INTEGER NOT NULL REFERENCES accounts (id),
				amount INTEGER NOT NULL,
				date DATE NOT NULL
			)`,
		},
	},
	{
		version: 2,
		postgres: []string{
			`CREATE INDEX IF NOT EXISTS idx_transactions_source_date ON transactions (source_account_id, date)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_destination_date ON transactions (destination_account_id, date)`,
		},
		sqlite: []string{
			`CREATE INDEX IF NOT EXISTS idx_transactions_source_date ON transactions (source_account_id, date)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_destination_date ON transactions (destination_account_id, date)`,
		},
	},
}

// SchemaVersion is the version Migrate brings a database to.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate applies every pending migration, each in its own transaction.
func Migrate(ctx context.Context, db *sql.DB, dialect repository.Dialect) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`)
	if err != nil {
		return &MigrationError{Version: 0, Err: err}
	}

	var current int
	err = db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return &MigrationError{Version: 0, Err: err}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(ctx, db, dialect, m); err != nil {
			return &MigrationError{Version: m.version, Err: err}
		}
		log.Printf("Applied schema migration %d", m.version)
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, dialect repository.Dialect, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements(dialect) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	insert := dialect.Rebind(`INSERT INTO schema_migrations (version) VALUES ($1)`)
	if _, err := tx.ExecContext(ctx, insert, m.version); err != nil {
		return err
	}

	return tx.Commit()
}
