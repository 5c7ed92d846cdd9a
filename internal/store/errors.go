package store

import "errors"

// Sentinel errors returned by record store methods. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrRecordNotFound is returned when no record has the requested id.
	ErrRecordNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by SaveVersioned when the stored
	// version differs from the version the caller expected.
	ErrVersionConflict = errors.New("record version conflict")

	// ErrInvalidRecord is returned for records without an id.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrTransient wraps driver errors that may succeed when retried, such
	// as a lost connection or a serialization failure.
	ErrTransient = errors.New("transient storage error")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing an INSERT, UPDATE or
	// DELETE fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning a single result row fails.
	ErrScanningRow = errors.New("failed to scan record row")

	// ErrScanningRows is returned when scanning fails during multi-row
	// iteration.
	ErrScanningRows = errors.New("failed to scan record rows")

	// ErrEncodingData is returned when record data cannot be encoded to or
	// decoded from its stored JSON form.
	ErrEncodingData = errors.New("failed to encode record data")
)
