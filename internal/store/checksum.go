package store

import (
	"encoding/hex"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/blake2b"
)

// Checksum returns the hex BLAKE2b-256 digest of the JSON encoding of data.
// Map keys are encoded in sorted order, so equal content gives equal sums.
func Checksum(data map[string]any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
