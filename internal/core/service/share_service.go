package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rl1809/westock/internal/core/domain"
	"github.com/rl1809/westock/internal/port"
)

// DefaultMaxShareItemBytes keeps a single shared item under the remote
// store's per-document size limit.
const DefaultMaxShareItemBytes = 900 * 1024

var ErrMalformedShare = errors.New("malformed share record")

type ImportResult struct {
	BundleID     string `json:"bundleId"`
	BundleAdded  bool   `json:"bundleAdded"`
	ItemsAdded   int    `json:"itemsAdded"`
	ItemsMissing int    `json:"itemsMissing"`
}

// ShareService moves one bundle and its items between independent users
// through a token-addressed remote record.
type ShareService struct {
	repo         *Repository
	shares       port.ShareStore
	log          *slog.Logger
	maxItemBytes int
	now          func() time.Time
}

func NewShareService(log *slog.Logger, repo *Repository, shares port.ShareStore, maxItemBytes int) *ShareService {
	if maxItemBytes <= 0 {
		maxItemBytes = DefaultMaxShareItemBytes
	}
	return &ShareService{
		repo:         repo,
		shares:       shares,
		log:          log.With("service", "share"),
		maxItemBytes: maxItemBytes,
		now:          time.Now,
	}
}

// Export publishes the bundle and the items it references and returns the
// WS- token. On any remote failure the token is empty.
func (s *ShareService) Export(ctx context.Context, bundleID string) (string, error) {
	if s.shares == nil {
		return "", ErrRemoteUnavailable
	}

	bundle, items, missing, ok := s.repo.BundleItems(ctx, bundleID)
	if !ok {
		return "", fmt.Errorf("bundle %s: %w", bundleID, domain.ErrBundleNotFound)
	}

	recordID, err := s.shares.CreateShareRecord(ctx, domain.ShareRecord{
		Type:      domain.ShareTypeTransfer,
		Bundle:    bundle,
		ItemCount: len(items),
		CreatedAt: s.now().UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("create share record: %w", err)
	}

	// Items are written independently; a failure part way leaves a record
	// with fewer items than declared, which Import tolerates.
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			return s.shares.PutShareItem(gctx, recordID, s.fit(item))
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("share export incomplete", slog.String("record", recordID), slog.Any("error", err))
		return "", fmt.Errorf("write share items: %w", err)
	}

	s.log.Info("bundle exported",
		slog.String("bundle", bundle.ID),
		slog.String("record", recordID),
		slog.Int("items", len(items)),
		slog.Int("missing", len(missing)),
	)
	return domain.FormatToken(recordID), nil
}

// Import fetches a shared bundle and merges it into the local document.
// Existing local items and bundles always win on id collisions, so importing
// the same token twice adds nothing the second time. Nothing is written
// locally unless both remote reads succeed.
func (s *ShareService) Import(ctx context.Context, token string) (ImportResult, error) {
	recordID, err := domain.ParseToken(token)
	if err != nil {
		return ImportResult{}, err
	}
	if s.shares == nil {
		return ImportResult{}, ErrRemoteUnavailable
	}

	record, err := s.shares.GetShareRecord(ctx, recordID)
	if err != nil {
		return ImportResult{}, fmt.Errorf("fetch share record: %w", err)
	}
	if record == nil {
		return ImportResult{}, fmt.Errorf("record %s: %w", recordID, domain.ErrShareNotFound)
	}
	if record.Type != domain.ShareTypeTransfer || record.Bundle.Validate() != nil {
		return ImportResult{}, fmt.Errorf("record %s: %w", recordID, ErrMalformedShare)
	}

	fetched, err := s.shares.ListShareItems(ctx, recordID)
	if err != nil {
		return ImportResult{}, fmt.Errorf("fetch share items: %w", err)
	}

	log := s.log.With(slog.String("record", recordID))
	if len(fetched) < record.ItemCount {
		log.Warn("share record has fewer items than declared",
			slog.Int("declared", record.ItemCount),
			slog.Int("found", len(fetched)),
		)
	}

	items := orderByBundle(record.Bundle, fetched)

	doc := s.repo.Document(ctx)
	result := ImportResult{BundleID: record.Bundle.ID}

	var added []domain.InventoryItem
	for _, item := range items {
		if err := item.Validate(); err != nil {
			log.Warn("skipping invalid shared item", slog.String("item", item.ID), slog.Any("error", err))
			continue
		}
		if doc.ItemIndex(item.ID) != -1 {
			continue
		}
		added = append(added, item)
	}
	doc.Items = append(added, doc.Items...)
	result.ItemsAdded = len(added)

	if doc.BundleIndex(record.Bundle.ID) == -1 {
		doc.Bundles = append([]domain.Bundle{record.Bundle}, doc.Bundles...)
		result.BundleAdded = true
	}

	_, missingIDs := resolveItems(doc, record.Bundle.ItemIDs)
	result.ItemsMissing = len(missingIDs)

	if result.ItemsAdded == 0 && !result.BundleAdded {
		log.Info("share already imported")
		return result, nil
	}

	if err := s.repo.Replace(ctx, doc); err != nil {
		return ImportResult{}, fmt.Errorf("save imported bundle: %w", err)
	}

	log.Info("bundle imported",
		slog.String("bundle", record.Bundle.ID),
		slog.Int("items_added", result.ItemsAdded),
		slog.Bool("bundle_added", result.BundleAdded),
	)
	return result, nil
}

// fit returns the item unchanged if it fits the size limit, otherwise a copy
// without its image.
func (s *ShareService) fit(item domain.InventoryItem) domain.InventoryItem {
	data, err := json.Marshal(item)
	if err != nil || len(data) <= s.maxItemBytes {
		return item
	}

	s.log.Info("item too large to share, omitting media",
		slog.String("item", item.ID),
		slog.Int("bytes", len(data)),
	)
	return item.Degrade()
}

// orderByBundle sorts fetched items into the bundle's reference order. Items
// the bundle does not reference are kept at the end.
func orderByBundle(bundle domain.Bundle, fetched []domain.InventoryItem) []domain.InventoryItem {
	byID := make(map[string]domain.InventoryItem, len(fetched))
	for _, it := range fetched {
		byID[it.ID] = it
	}

	out := make([]domain.InventoryItem, 0, len(fetched))
	for _, id := range bundle.ItemIDs {
		if it, ok := byID[id]; ok {
			out = append(out, it)
			delete(byID, id)
		}
	}
	for _, it := range fetched {
		if _, ok := byID[it.ID]; ok {
			out = append(out, it)
			delete(byID, it.ID)
		}
	}
	return out
}
