package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClassification says whether a failed database operation should be
// retried or abandoned.
type ErrorClassification int

const (
	// NonRetryable is the default for unrecognised errors, constraint
	// violations, syntax errors and data exceptions.
	NonRetryable ErrorClassification = iota

	// Retryable operations may succeed when attempted again, e.g. after a
	// lost connection or a deadlock rollback.
	Retryable
)

// PostgresErrorClassifier implements [ErrorClassificator] for PostgreSQL by
// inspecting the SQLSTATE of pgx errors.
type PostgresErrorClassifier struct{}

func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	var pgErr *pgconn.PgError
	if err != nil && errors.As(err, &pgErr) {
		return ClassifyPgError(pgErr)
	}
	return NonRetryable
}

// ClassifyPgError maps a SQLSTATE to a classification.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html.
//
// Retryable:
//   - Class 08, connection exceptions
//   - Class 40, transaction rollback, serialization failure, deadlock
//   - Class 53, too many connections
//   - Class 57, cannot connect now
func ClassifyPgError(pgErr *pgconn.PgError) ErrorClassification {
	switch pgErr.Code {
	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.TransactionRollback,
		pgerrcode.SerializationFailure,
		pgerrcode.DeadlockDetected,
		pgerrcode.TooManyConnections,
		pgerrcode.CannotConnectNow:
		return Retryable
	}
	return NonRetryable
}
