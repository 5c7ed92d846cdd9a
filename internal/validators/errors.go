package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidRecordID   = errors.New("record id is required")
	ErrInvalidUserID     = errors.New("user id is required")
	ErrEmptyData         = errors.New("data must be a JSON object")
	ErrInvalidVersion    = errors.New("version must be at least 1")
	ErrPayloadTooLarge   = errors.New("payload exceeds the size limit")
	ErrEncodingPayload   = errors.New("payload cannot be encoded")
	ErrEmptyUpdates      = errors.New("updates list cannot be empty")
)
