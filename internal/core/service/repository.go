package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/westock/internal/core/domain"
	"github.com/rl1809/westock/internal/port"
)

// SaveObserver is notified after every successful local save that should be
// mirrored remotely.
type SaveObserver interface {
	DocumentSaved(doc domain.Document)
}

// Repository is the CRUD layer over the local store. Every mutation reads the
// whole document, changes it in memory and saves it back; nothing is cached
// between calls.
type Repository struct {
	store port.LocalStore
	log   *slog.Logger
	now   func() time.Time

	// writeMu serializes read-modify-write cycles on the document.
	writeMu sync.Mutex

	mu        sync.RWMutex
	observers []SaveObserver
	replaced  []func(domain.Document)
}

func NewRepository(log *slog.Logger, store port.LocalStore) *Repository {
	return &Repository{
		store: store,
		log:   log.With("service", "repository"),
		now:   time.Now,
	}
}

// Observe registers o to be called after each successful save.
func (r *Repository) Observe(o SaveObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// OnReplaced subscribes fn to whole-document replacements coming from the
// remote mirror.
func (r *Repository) OnReplaced(fn func(domain.Document)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaced = append(r.replaced, fn)
}

func (r *Repository) Document(ctx context.Context) domain.Document {
	return r.store.Load(ctx)
}

// CreateItem assigns an id and creation time where missing, then adds the
// item at the front of the list.
func (r *Repository) CreateItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt == 0 {
		item.CreatedAt = r.now().UnixMilli()
	}
	if err := r.AddItem(ctx, item); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

func (r *Repository) AddItem(ctx context.Context, item domain.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	doc := r.store.Load(ctx)
	if doc.ItemIndex(item.ID) != -1 {
		return fmt.Errorf("item %s: %w", item.ID, domain.ErrDuplicateID)
	}
	doc.Items = append([]domain.InventoryItem{item}, doc.Items...)
	return r.save(ctx, doc)
}

func (r *Repository) UpdateItem(ctx context.Context, item domain.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	doc := r.store.Load(ctx)
	idx := doc.ItemIndex(item.ID)
	if idx == -1 {
		return fmt.Errorf("item %s: %w", item.ID, domain.ErrItemNotFound)
	}
	doc.Items[idx] = item
	return r.save(ctx, doc)
}

func (r *Repository) GetItem(ctx context.Context, id string) (domain.InventoryItem, bool) {
	doc := r.store.Load(ctx)
	if idx := doc.ItemIndex(id); idx != -1 {
		return doc.Items[idx], true
	}
	return domain.InventoryItem{}, false
}

// DeleteItem removes the item and strips its id from every bundle. Deleting
// an unknown id still succeeds.
func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	doc := r.store.Load(ctx)

	items := make([]domain.InventoryItem, 0, len(doc.Items))
	for _, it := range doc.Items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	doc.Items = items

	for i, b := range doc.Bundles {
		doc.Bundles[i] = b.Without(id)
	}
	return r.save(ctx, doc)
}

func (r *Repository) CreateBundle(ctx context.Context, bundle domain.Bundle) (domain.Bundle, error) {
	if bundle.ID == "" {
		bundle.ID = uuid.NewString()
	}
	if bundle.CreatedAt == 0 {
		bundle.CreatedAt = r.now().UnixMilli()
	}
	if bundle.ItemIDs == nil {
		bundle.ItemIDs = []string{}
	}
	if err := r.AddBundle(ctx, bundle); err != nil {
		return domain.Bundle{}, err
	}
	return bundle, nil
}

func (r *Repository) AddBundle(ctx context.Context, bundle domain.Bundle) error {
	if err := bundle.Validate(); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	doc := r.store.Load(ctx)
	if doc.BundleIndex(bundle.ID) != -1 {
		return fmt.Errorf("bundle %s: %w", bundle.ID, domain.ErrDuplicateID)
	}
	doc.Bundles = append([]domain.Bundle{bundle}, doc.Bundles...)
	return r.save(ctx, doc)
}

func (r *Repository) UpdateBundle(ctx context.Context, bundle domain.Bundle) error {
	if err := bundle.Validate(); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	doc := r.store.Load(ctx)
	idx := doc.BundleIndex(bundle.ID)
	if idx == -1 {
		return fmt.Errorf("bundle %s: %w", bundle.ID, domain.ErrBundleNotFound)
	}
	doc.Bundles[idx] = bundle
	return r.save(ctx, doc)
}

func (r *Repository) GetBundle(ctx context.Context, id string) (domain.Bundle, bool) {
	doc := r.store.Load(ctx)
	if idx := doc.BundleIndex(id); idx != -1 {
		return doc.Bundles[idx], true
	}
	return domain.Bundle{}, false
}

func (r *Repository) DeleteBundle(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	doc := r.store.Load(ctx)

	bundles := make([]domain.Bundle, 0, len(doc.Bundles))
	for _, b := range doc.Bundles {
		if b.ID != id {
			bundles = append(bundles, b)
		}
	}
	doc.Bundles = bundles
	return r.save(ctx, doc)
}

// BundleItems resolves a bundle's references in order. Ids with no matching
// item are reported in missing instead of failing.
func (r *Repository) BundleItems(ctx context.Context, bundleID string) (bundle domain.Bundle, items []domain.InventoryItem, missing []string, ok bool) {
	doc := r.store.Load(ctx)
	idx := doc.BundleIndex(bundleID)
	if idx == -1 {
		return domain.Bundle{}, nil, nil, false
	}

	bundle = doc.Bundles[idx]
	items, missing = resolveItems(doc, bundle.ItemIDs)
	return bundle, items, missing, true
}

// Replace swaps the local document wholesale and mirrors it like any other
// local write.
func (r *Repository) Replace(ctx context.Context, doc domain.Document) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.save(ctx, doc.Normalize())
}

// ReplaceFromRemote stores a document pulled from the remote mirror. Save
// observers are not called, so the pull is not pushed straight back.
func (r *Repository) ReplaceFromRemote(ctx context.Context, doc domain.Document) error {
	doc = doc.Normalize()
	r.writeMu.Lock()
	err := r.store.Save(ctx, doc)
	r.writeMu.Unlock()
	if err != nil {
		return err
	}

	r.mu.RLock()
	subs := slices.Clone(r.replaced)
	r.mu.RUnlock()

	for _, fn := range subs {
		fn(doc.Clone())
	}
	return nil
}

func (r *Repository) save(ctx context.Context, doc domain.Document) error {
	if err := r.store.Save(ctx, doc); err != nil {
		r.log.Warn("local save failed", slog.Any("error", err))
		return err
	}

	r.mu.RLock()
	observers := slices.Clone(r.observers)
	r.mu.RUnlock()

	for _, o := range observers {
		o.DocumentSaved(doc.Clone())
	}
	return nil
}

func resolveItems(doc domain.Document, ids []string) (items []domain.InventoryItem, missing []string) {
	byID := make(map[string]domain.InventoryItem, len(doc.Items))
	for _, it := range doc.Items {
		byID[it.ID] = it
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		if it, ok := byID[id]; ok {
			items = append(items, it)
		} else {
			missing = append(missing, id)
		}
	}
	return items, missing
}
