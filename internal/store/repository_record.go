package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

// recordRepository is the SQL implementation of [RecordStore]. Queries are
// built with squirrel using the placeholder format of the connection's
// dialect.
type recordRepository struct {
	*DB
	now    func() time.Time
	logger *logger.Logger
}

func NewRecordRepository(db *DB, logger *logger.Logger) RecordStore {
	return &recordRepository{
		DB:     db,
		now:    time.Now,
		logger: logger,
	}
}

func (r *recordRepository) Get(ctx context.Context, id string) (models.Record, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetRecordQuery(r.builder, id)
	if err != nil {
		return models.Record{}, err
	}

	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, ErrRecordNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Get").
			Str("record_id", id).
			Msg("failed to get record")
		return models.Record{}, r.classify(err)
	}
	return rec, nil
}

func (r *recordRepository) Upsert(ctx context.Context, rec models.Record) (models.Record, error) {
	log := logger.FromContext(ctx)

	rec, data, err := r.prepare(rec)
	if err != nil {
		return models.Record{}, err
	}

	query, args, err := buildUpsertRecordQuery(r.builder, rec, data)
	if err != nil {
		return models.Record{}, err
	}

	if err = r.DB.QueryRowContext(ctx, query, args...).Scan(&rec.CreatedAt); err != nil {
		log.Err(err).
			Str("func", "recordRepository.Upsert").
			Str("record_id", rec.ID).
			Msg("failed to upsert record")
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingStatement, r.classify(err))
	}
	return rec, nil
}

func (r *recordRepository) SaveVersioned(ctx context.Context, rec models.Record, expected int64) (models.Record, error) {
	log := logger.FromContext(ctx)

	rec.Version = expected + 1
	rec, data, err := r.prepare(rec)
	if err != nil {
		return models.Record{}, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.SaveVersioned").
			Str("record_id", rec.ID).
			Msg("failed to begin transaction")
		return models.Record{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, r.classify(err))
	}
	defer func() { _ = tx.Rollback() }()

	saved, err := r.saveVersionedTx(ctx, tx, rec, data, expected)
	if err != nil {
		if !errors.Is(err, ErrVersionConflict) {
			log.Err(err).
				Str("func", "recordRepository.SaveVersioned").
				Str("record_id", rec.ID).
				Int64("expected_version", expected).
				Msg("failed to save record")
		}
		return models.Record{}, err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "recordRepository.SaveVersioned").
			Str("record_id", rec.ID).
			Msg("failed to commit transaction")
		return models.Record{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, r.classify(err))
	}
	return saved, nil
}

func (r *recordRepository) saveVersionedTx(ctx context.Context, tx *sql.Tx, rec models.Record, data string, expected int64) (models.Record, error) {
	query, args, err := buildVersionedUpdateQuery(r.builder, rec, data, expected)
	if err != nil {
		return models.Record{}, err
	}

	err = tx.QueryRowContext(ctx, query, args...).Scan(&rec.PairingKey, &rec.CreatedAt)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingStatement, r.classify(err))
	}

	query, args, err = buildGetVersionQuery(r.builder, rec.ID)
	if err != nil {
		return models.Record{}, err
	}
	var stored int64
	err = tx.QueryRowContext(ctx, query, args...).Scan(&stored)
	if err == nil {
		return models.Record{}, fmt.Errorf("%w: stored version %d, expected %d", ErrVersionConflict, stored, expected)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingQuery, r.classify(err))
	}

	query, args, err = buildInsertRecordQuery(r.builder, rec, data)
	if err != nil {
		return models.Record{}, err
	}
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&rec.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return models.Record{}, fmt.Errorf("%w: record created concurrently", ErrVersionConflict)
		}
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingStatement, r.classify(err))
	}
	return rec, nil
}

func (r *recordRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	query, args, err := buildDeleteRecordQuery(r.builder, id)
	if err != nil {
		return err
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "recordRepository.Delete").
			Str("record_id", id).
			Msg("failed to delete record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, r.classify(err))
	}
	return nil
}

func (r *recordRepository) ListByPairingKey(ctx context.Context, pairingKey string) ([]models.Record, error) {
	query, args, err := buildListByPairingKeyQuery(r.builder, pairingKey)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, "recordRepository.ListByPairingKey", query, args)
}

func (r *recordRepository) ListModifiedSince(ctx context.Context, since time.Time) ([]models.Record, error) {
	query, args, err := buildListModifiedSinceQuery(r.builder, since)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, "recordRepository.ListModifiedSince", query, args)
}

func (r *recordRepository) list(ctx context.Context, fn, query string, args []any) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to execute query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, r.classify(err))
	}
	defer rows.Close()

	records := make([]models.Record, 0, 16)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", fn).Msg("failed to scan record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).Str("func", fn).Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}
	return records, nil
}

// prepare validates rec, fills checksum and timestamps, and encodes data.
func (r *recordRepository) prepare(rec models.Record) (models.Record, string, error) {
	if rec.ID == "" {
		return models.Record{}, "", ErrInvalidRecord
	}
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}

	raw, err := json.Marshal(rec.Data)
	if err != nil {
		return models.Record{}, "", fmt.Errorf("%w: %w", ErrEncodingData, err)
	}
	if rec.Checksum, err = Checksum(rec.Data); err != nil {
		return models.Record{}, "", fmt.Errorf("%w: %w", ErrEncodingData, err)
	}

	now := r.now().UTC()
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	return rec, string(raw), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.Record, error) {
	var (
		rec models.Record
		raw []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.PairingKey,
		&raw,
		&rec.Version,
		&rec.Checksum,
		&rec.UpdatedBy,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return models.Record{}, err
	}
	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &rec.Data); err != nil {
			return models.Record{}, fmt.Errorf("%w: %w", ErrEncodingData, err)
		}
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
