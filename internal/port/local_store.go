package port

import (
	"context"

	"github.com/rl1809/westock/internal/core/domain"
)

type LocalStore interface {
	// Load returns the persisted document, or an empty one if nothing is
	// stored or the stored value cannot be parsed. It never fails.
	Load(ctx context.Context) domain.Document

	// Save replaces the persisted document. Returns domain.ErrQuotaExceeded
	// when the medium is full; nothing is written in that case.
	Save(ctx context.Context, doc domain.Document) error

	// Usage reports the byte size of the persisted document
	Usage(ctx context.Context) (int64, error)

	PIN(ctx context.Context) (string, error)
	SetPIN(ctx context.Context, pin string) error
	ClearPIN(ctx context.Context) error
}

// LegacyStore is the storage medium documents are migrated away from.
type LegacyStore interface {
	// Read returns nil, nil when the medium holds no document and
	// domain.ErrMalformedDocument when it holds one that cannot be parsed.
	Read(ctx context.Context) (*domain.Document, error)

	// Clear removes the document so it is never migrated twice
	Clear(ctx context.Context) error
}
