package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/migrations"
)

type DB struct {
	*sql.DB
	dialect            string
	builder            sq.StatementBuilderType
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// NewDB opens the database selected by cfg.
func NewDB(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	switch driver := cfg.ResolvedDriver(); driver {
	case config.DriverPostgres:
		return NewConnectPostgres(ctx, cfg, log)
	case config.DriverSQLite:
		return NewConnectSQLite(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func newDB(conn *sql.DB, dialect string, classifier ErrorClassificator, log *logger.Logger) *DB {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == migrations.DialectPostgres {
		placeholder = sq.Dollar
	}
	return &DB{
		DB:                 conn,
		dialect:            dialect,
		builder:            sq.StatementBuilder.PlaceholderFormat(placeholder),
		errorClassificator: classifier,
		logger:             log,
	}
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}

// classify marks retryable driver errors with ErrTransient.
func (db *DB) classify(err error) error {
	if err == nil || db.errorClassificator == nil {
		return err
	}
	if db.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}
