package store

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/report-sync/models"
)

const (
	recordsTable = "records"
	auditTable   = "audit_events"
)

var recordColumns = []string{
	"id",
	"pairing_key",
	"data",
	"version",
	"checksum",
	"updated_by",
	"created_at",
	"updated_at",
}

func buildGetRecordQuery(b sq.StatementBuilderType, id string) (string, []any, error) {
	return wrapBuild(b.Select(recordColumns...).
		From(recordsTable).
		Where(sq.Eq{"id": id}).
		ToSql())
}

func buildGetVersionQuery(b sq.StatementBuilderType, id string) (string, []any, error) {
	return wrapBuild(b.Select("version").
		From(recordsTable).
		Where(sq.Eq{"id": id}).
		ToSql())
}

// buildInsertRecordQuery returns the stored created_at.
func buildInsertRecordQuery(b sq.StatementBuilderType, rec models.Record, data string) (string, []any, error) {
	return wrapBuild(b.Insert(recordsTable).
		Columns(recordColumns...).
		Values(rec.ID, rec.PairingKey, data, rec.Version, rec.Checksum, rec.UpdatedBy, rec.CreatedAt, rec.UpdatedAt).
		Suffix("RETURNING created_at").
		ToSql())
}

// buildUpsertRecordQuery keeps the original created_at of an existing row
// and returns it.
func buildUpsertRecordQuery(b sq.StatementBuilderType, rec models.Record, data string) (string, []any, error) {
	return wrapBuild(b.Insert(recordsTable).
		Columns(recordColumns...).
		Values(rec.ID, rec.PairingKey, data, rec.Version, rec.Checksum, rec.UpdatedBy, rec.CreatedAt, rec.UpdatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			pairing_key = excluded.pairing_key,
			data        = excluded.data,
			version     = excluded.version,
			checksum    = excluded.checksum,
			updated_by  = excluded.updated_by,
			updated_at  = excluded.updated_at
		RETURNING created_at`).
		ToSql())
}

// buildVersionedUpdateQuery matches no row when the stored version is not
// expected.
func buildVersionedUpdateQuery(b sq.StatementBuilderType, rec models.Record, data string, expected int64) (string, []any, error) {
	update := b.Update(recordsTable).
		Set("data", data).
		Set("version", rec.Version).
		Set("checksum", rec.Checksum).
		Set("updated_by", rec.UpdatedBy).
		Set("updated_at", rec.UpdatedAt)
	if rec.PairingKey != "" {
		update = update.Set("pairing_key", rec.PairingKey)
	}

	return wrapBuild(update.
		Where(sq.Eq{"id": rec.ID, "version": expected}).
		Suffix("RETURNING pairing_key, created_at").
		ToSql())
}

func buildDeleteRecordQuery(b sq.StatementBuilderType, id string) (string, []any, error) {
	return wrapBuild(b.Delete(recordsTable).
		Where(sq.Eq{"id": id}).
		ToSql())
}

func buildListByPairingKeyQuery(b sq.StatementBuilderType, pairingKey string) (string, []any, error) {
	return wrapBuild(b.Select(recordColumns...).
		From(recordsTable).
		Where(sq.Eq{"pairing_key": pairingKey}).
		OrderBy("id").
		ToSql())
}

func buildListModifiedSinceQuery(b sq.StatementBuilderType, since time.Time) (string, []any, error) {
	return wrapBuild(b.Select(recordColumns...).
		From(recordsTable).
		Where(sq.Gt{"updated_at": since}).
		OrderBy("updated_at", "id").
		ToSql())
}

func buildInsertAuditQuery(b sq.StatementBuilderType, e models.AuditEvent, details, before, after *string) (string, []any, error) {
	return wrapBuild(b.Insert(auditTable).
		Columns("kind", "severity", "actor", "subject", "details", "success", "before_data", "after_data", "occurred_at").
		Values(e.Kind, string(e.Severity), e.Actor, e.Subject, details, e.Success, before, after, e.Timestamp).
		ToSql())
}

func wrapBuild(query string, args []any, err error) (string, []any, error) {
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}
