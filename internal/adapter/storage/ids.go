package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const (
	recordIDLength  = 20
	maxIDCollisions = 5
)

// newRecordID returns a short share record id: the first 20 hex digits of a
// random UUID, which keeps tokens easy to copy by hand.
func newRecordID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:recordIDLength]
}

// keyHash maps an id of any length to a fixed-width index key.
func keyHash(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}
