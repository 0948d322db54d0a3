// Package database opens storage handles for the ledger and brings their
// schema up to date. Handles are returned to the caller, which owns them
// and must close them.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rufm/ledger/internal/config"
	"github.com/rufm/ledger/internal/repository"
)

// Open connects to the configured backend and migrates it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, repository.Dialect, error) {
	dialect, err := repository.DialectFor(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}

	var db *sql.DB
	if dialect == repository.Postgres {
		db, err = OpenPostgres(cfg)
	} else {
		db, err = OpenSQLite(cfg.Path)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("error migrating database: %w", err)
	}
	return db, dialect, nil
}

// OpenStore is Open followed by repository.NewSQLStore.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (*repository.SQLStore, *sql.DB, error) {
	db, dialect, err := Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewSQLStore(db, dialect), db, nil
}
