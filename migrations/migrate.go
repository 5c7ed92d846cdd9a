// Package migrations embeds the schema of the record store and the SQL
// audit sink, one goose migration set per dialect.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedMigrations embed.FS

// Goose dialect names.
const (
	DialectPostgres = "pgx"
	DialectSQLite   = "sqlite3"
)

var dirs = map[string]string{
	DialectPostgres: "postgres",
	DialectSQLite:   "sqlite",
}

// Migrate applies every pending migration for dialect.
func Migrate(db *sql.DB, dialect string) error {
	if db == nil {
		return errors.New("migration error: db is nil")
	}
	dir, ok := dirs[dialect]
	if !ok {
		return fmt.Errorf("migration error: unsupported dialect %q", dialect)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
