package domain

import (
	"errors"
	"strings"
)

const (
	ShareTypeTransfer = "westock_transfer"
	TokenPrefix       = "WS-"

	// MediaOmittedNote is appended to the note of an item exported without its image.
	MediaOmittedNote = "media omitted: too large"
)

var (
	ErrInvalidToken  = errors.New("invalid share token")
	ErrShareNotFound = errors.New("share record not found")
)

// ShareRecord is the remote, token-addressable copy of one bundle. Its items
// are stored separately in a sub-collection keyed by the record id.
type ShareRecord struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Bundle    Bundle `json:"bundle"`
	ItemCount int    `json:"itemCount"`
	CreatedAt int64  `json:"createdAt"`
}

func FormatToken(recordID string) string {
	return TokenPrefix + recordID
}

// ParseToken extracts the record id from a WS- token. Only surrounding
// whitespace is forgiven; the prefix and id are case-sensitive.
func ParseToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	id, ok := strings.CutPrefix(token, TokenPrefix)
	if !ok || id == "" {
		return "", ErrInvalidToken
	}
	return id, nil
}

// Degrade strips the image from an item and records why in its note.
func (i InventoryItem) Degrade() InventoryItem {
	i.ImageURL = ""
	if i.Note == "" {
		i.Note = MediaOmittedNote
	} else {
		i.Note = i.Note + "\n" + MediaOmittedNote
	}
	return i
}
