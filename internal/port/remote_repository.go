package port

import (
	"context"

	"github.com/rl1809/westock/internal/core/domain"
)

type DocumentStore interface {
	// GetDocument returns nil, nil if the identity has no remote document yet
	GetDocument(ctx context.Context, identity domain.Identity) (*domain.Document, error)

	// PutDocument replaces the remote document wholesale (last writer wins)
	PutDocument(ctx context.Context, identity domain.Identity, doc domain.Document) error

	Ping(ctx context.Context) error
}

type ShareStore interface {
	// CreateShareRecord stores the record under a newly generated unique id
	// and returns that id. record.ID is ignored.
	CreateShareRecord(ctx context.Context, record domain.ShareRecord) (string, error)

	// PutShareItem writes one item into the record's sub-collection
	PutShareItem(ctx context.Context, recordID string, item domain.InventoryItem) error

	// GetShareRecord returns nil, nil if no record has that id
	GetShareRecord(ctx context.Context, recordID string) (*domain.ShareRecord, error)

	// ListShareItems returns every readable item in the record's sub-collection.
	// Entries that fail to decode are skipped.
	ListShareItems(ctx context.Context, recordID string) ([]domain.InventoryItem, error)
}

// RemoteStore is what a remote backend adapter provides
type RemoteStore interface {
	DocumentStore
	ShareStore
	Close() error
}
