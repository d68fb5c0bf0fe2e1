package domain

import "errors"

var ErrNotSignedIn = errors.New("no identity bound")

// Identity is the user id supplied by the authentication provider.
type Identity string

func (id Identity) IsZero() bool { return id == "" }

type SyncDirection string

const (
	SyncUp   SyncDirection = "up"
	SyncDown SyncDirection = "down"
)

func (d SyncDirection) Valid() bool {
	return d == SyncUp || d == SyncDown
}

// Suggestion is what the image classifier proposes for a new item.
type Suggestion struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}
