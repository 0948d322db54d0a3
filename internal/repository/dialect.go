package repository

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Dialect adapts the store's queries and driver errors to one database.
// Queries are written with PostgreSQL-style $n placeholders.
type Dialect interface {
	Name() string
	Rebind(query string) string
	// Classify maps a constraint failure onto ErrUniqueViolation or
	// ErrReferentialIntegrity and returns nil for anything else.
	Classify(err error) error
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// DialectFor returns the dialect registered for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// PostgreSQL error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Rebind(query string) string { return query }

func (postgresDialect) Classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return ErrUniqueViolation
	case pqForeignKeyViolation:
		return ErrReferentialIntegrity
	}
	return nil
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite3" }

// Rebind turns $n into ?n, SQLite's numbered parameter form, so a
// parameter may be referenced more than once.
func (sqliteDialect) Rebind(query string) string {
	return placeholder.ReplaceAllString(query, "?$1")
}

func (sqliteDialect) Classify(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return ErrUniqueViolation
	case sqlite3.ErrConstraintForeignKey:
		return ErrReferentialIntegrity
	}
	return nil
}
