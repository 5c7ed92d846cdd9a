package validators

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/MKhiriev/report-sync/models"
)

// Field name constants restrict validation to a subset of fields.
const (
	// FieldRecordID targets the record identifier of an update.
	FieldRecordID = "record_id"

	// FieldData targets the object-shaped record payload.
	FieldData = "data"

	// FieldVersion targets the version the author expects to be current.
	FieldVersion = "version"

	// FieldPayloadSize bounds the encoded size of the payload.
	FieldPayloadSize = "payload_size"

	// FieldUpdates targets the update list of a bulk request.
	FieldUpdates = "updates"

	// FieldUserID targets the acting user of a bulk request.
	FieldUserID = "user_id"
)

// BulkUpdate is the validated form of a bulk update request.
type BulkUpdate struct {
	UserID  string
	Updates []models.RecordUpdate
}

// RecordValidator checks the structural integrity of record updates before
// they reach the lock manager or the store.
type RecordValidator struct {
	maxPayloadBytes int
}

// NewRecordValidator returns a validator rejecting payloads whose JSON
// encoding is longer than maxPayloadBytes. Zero disables the size check.
func NewRecordValidator(maxPayloadBytes int) Validator {
	return &RecordValidator{maxPayloadBytes: maxPayloadBytes}
}

func (v *RecordValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.RecordUpdate:
		return v.validateRecordUpdate(ctx, value, fields...)
	case *models.RecordUpdate:
		return v.validateRecordUpdate(ctx, *value, fields...)

	case BulkUpdate:
		return v.validateBulkUpdate(ctx, value, fields...)
	case *BulkUpdate:
		return v.validateBulkUpdate(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *RecordValidator) validateRecordUpdate(_ context.Context, update models.RecordUpdate, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldRecordID, FieldData, FieldVersion, FieldPayloadSize}
	}

	for _, f := range fields {
		switch f {
		case FieldRecordID:
			if update.RecordID == "" {
				return ErrInvalidRecordID
			}
		case FieldData:
			if update.Data == nil {
				return ErrEmptyData
			}
		case FieldVersion:
			if update.Version < 1 {
				return ErrInvalidVersion
			}
		case FieldPayloadSize:
			if v.maxPayloadBytes <= 0 {
				continue
			}
			raw, err := json.Marshal(update.Data)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrEncodingPayload, err)
			}
			if len(raw) > v.maxPayloadBytes {
				return fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(raw), v.maxPayloadBytes)
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateBulkUpdate checks the request as a whole. Individual updates are
// validated one by one by the caller so that a bad update is skipped rather
// than failing the batch.
func (v *RecordValidator) validateBulkUpdate(_ context.Context, request BulkUpdate, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldUserID, FieldUpdates}
	}

	for _, f := range fields {
		switch f {
		case FieldUserID:
			if request.UserID == "" {
				return ErrInvalidUserID
			}
		case FieldUpdates:
			if len(request.Updates) == 0 {
				return ErrEmptyUpdates
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}
