package domain

import (
	"errors"
	"fmt"
)

var ErrBundleNotFound = errors.New("bundle not found")

// Bundle references items by id. References are not owning and may dangle.
type Bundle struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ItemIDs     []string `json:"itemIds"`
	CreatedAt   int64    `json:"createdAt"`
}

func (b Bundle) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidBundle)
	}
	return nil
}

// Without returns a copy of the bundle with every occurrence of itemID removed.
func (b Bundle) Without(itemID string) Bundle {
	ids := make([]string, 0, len(b.ItemIDs))
	for _, id := range b.ItemIDs {
		if id != itemID {
			ids = append(ids, id)
		}
	}
	b.ItemIDs = ids
	return b
}
