package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rl1809/westock/internal/core/domain"
)

func newTestRepository() (*Repository, *mockLocalStore) {
	store := newMockLocalStore()
	return NewRepository(testLogger(), store), store
}

func TestAddItem_PrependsNewest(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()

	if err := repo.AddItem(ctx, domain.InventoryItem{ID: "1", Name: "Tee"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.AddItem(ctx, domain.InventoryItem{ID: "2", Name: "Cap"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := repo.Document(ctx)
	if len(doc.Items) != 2 || doc.Items[0].ID != "2" || doc.Items[1].ID != "1" {
		t.Errorf("expected most-recent-first order, got %+v", doc.Items)
	}
}

func TestAddItem_RejectsDuplicateAndNegativeStock(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()

	if err := repo.AddItem(ctx, tee()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := repo.AddItem(ctx, tee())
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got: %v", err)
	}

	bad := domain.InventoryItem{ID: "2", Stock: domain.Stock{M: -1}}
	err = repo.AddItem(ctx, bad)
	if !errors.Is(err, domain.ErrInvalidItem) {
		t.Errorf("expected ErrInvalidItem, got: %v", err)
	}

	if got := len(repo.Document(ctx).Items); got != 1 {
		t.Errorf("expected 1 item, got %d", got)
	}
}

func TestUpdateItem(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()

	err := repo.UpdateItem(ctx, tee())
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got: %v", err)
	}

	repo.AddItem(ctx, tee())
	updated := tee()
	updated.Stock.S = 5
	updated.Location = "Shelf B"
	if err := repo.UpdateItem(ctx, updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := repo.GetItem(ctx, "1")
	if !ok {
		t.Fatal("expected item to exist")
	}
	if got.Stock.S != 5 || got.Location != "Shelf B" {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestDeleteItem_CascadesToEveryBundle(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()

	repo.AddItem(ctx, domain.InventoryItem{ID: "1"})
	repo.AddItem(ctx, domain.InventoryItem{ID: "2"})
	repo.AddBundle(ctx, domain.Bundle{ID: "a", ItemIDs: []string{"1", "2", "1"}})
	repo.AddBundle(ctx, domain.Bundle{ID: "b", ItemIDs: []string{"1"}})
	repo.AddBundle(ctx, domain.Bundle{ID: "c", ItemIDs: []string{"2"}})

	if err := repo.DeleteItem(ctx, "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := repo.Document(ctx)
	if len(doc.Items) != 1 || doc.Items[0].ID != "2" {
		t.Errorf("expected only item 2 to remain, got %+v", doc.Items)
	}
	if len(doc.Bundles) != 3 {
		t.Fatalf("bundles must never be deleted by cascade, got %d", len(doc.Bundles))
	}

	want := map[string][]string{"a": {"2"}, "b": {}, "c": {"2"}}
	for _, b := range doc.Bundles {
		if len(b.ItemIDs) != len(want[b.ID]) {
			t.Errorf("bundle %s: got %v, want %v", b.ID, b.ItemIDs, want[b.ID])
			continue
		}
		for i := range b.ItemIDs {
			if b.ItemIDs[i] != want[b.ID][i] {
				t.Errorf("bundle %s: got %v, want %v", b.ID, b.ItemIDs, want[b.ID])
			}
		}
	}
}

func TestDeleteItem_AbsentIDSucceeds(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()

	repo.AddItem(ctx, tee())
	if err := repo.DeleteItem(ctx, "nope"); err != nil {
		t.Errorf("expected success, got: %v", err)
	}
	if _, ok := repo.GetItem(ctx, "1"); !ok {
		t.Error("unrelated item must survive")
	}
}

func TestBundleCRUD(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()

	if err := repo.AddBundle(ctx, summer("1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.AddBundle(ctx, summer()); !errors.Is(err, domain.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got: %v", err)
	}

	b := summer("1", "2")
	b.Description = "beach"
	if err := repo.UpdateBundle(ctx, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := repo.GetBundle(ctx, "b1")
	if !ok || got.Description != "beach" || len(got.ItemIDs) != 2 {
		t.Errorf("unexpected bundle: %+v", got)
	}

	if err := repo.UpdateBundle(ctx, domain.Bundle{ID: "zz"}); !errors.Is(err, domain.ErrBundleNotFound) {
		t.Errorf("expected ErrBundleNotFound, got: %v", err)
	}

	repo.AddItem(ctx, tee())
	if err := repo.DeleteBundle(ctx, "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.GetBundle(ctx, "b1"); ok {
		t.Error("expected bundle to be gone")
	}
	if _, ok := repo.GetItem(ctx, "1"); !ok {
		t.Error("deleting a bundle must not delete items")
	}
}

func TestBundleItems_ReportsMissing(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()

	repo.AddItem(ctx, tee())
	repo.AddBundle(ctx, summer("ghost", "1"))

	_, items, missing, ok := repo.BundleItems(ctx, "b1")
	if !ok {
		t.Fatal("expected bundle")
	}
	if len(items) != 1 || items[0].ID != "1" {
		t.Errorf("unexpected items: %+v", items)
	}
	if len(missing) != 1 || missing[0] != "ghost" {
		t.Errorf("unexpected missing: %v", missing)
	}

	if _, _, _, ok := repo.BundleItems(ctx, "nope"); ok {
		t.Error("expected unknown bundle")
	}
}

func TestSave_QuotaExceededIsNotApplied(t *testing.T) {
	repo, store := newTestRepository()
	obs := &recordingObserver{}
	repo.Observe(obs)
	ctx := context.Background()

	repo.AddItem(ctx, tee())
	store.saveErr = domain.ErrQuotaExceeded

	err := repo.AddItem(ctx, domain.InventoryItem{ID: "2"})
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got: %v", err)
	}
	if len(repo.Document(ctx).Items) != 1 {
		t.Error("failed save must leave the previous document")
	}
	if obs.count() != 1 {
		t.Errorf("observers must only see successful saves, got %d", obs.count())
	}
}

func TestReplaceFromRemote_EmitsEventWithoutObservers(t *testing.T) {
	repo, _ := newTestRepository()
	obs := &recordingObserver{}
	repo.Observe(obs)
	ctx := context.Background()

	var replaced []domain.Document
	repo.OnReplaced(func(doc domain.Document) { replaced = append(replaced, doc) })

	remote := domain.Document{Items: []domain.InventoryItem{tee()}}
	if err := repo.ReplaceFromRemote(ctx, remote); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(replaced) != 1 || len(replaced[0].Items) != 1 {
		t.Errorf("expected one replaced event, got %+v", replaced)
	}
	if obs.count() != 0 {
		t.Errorf("remote replacement must not be observed as a local save")
	}

	if err := repo.Replace(ctx, domain.EmptyDocument()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.count() != 1 {
		t.Errorf("local replacement must be observed, got %d", obs.count())
	}
}

func TestCreateItem_AssignsIDAndTimestamp(t *testing.T) {
	repo, _ := newTestRepository()
	repo.now = func() time.Time { return time.UnixMilli(1700000000123) }
	ctx := context.Background()

	item, err := repo.CreateItem(ctx, domain.InventoryItem{Name: "Scarf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID == "" || item.CreatedAt != 1700000000123 {
		t.Errorf("expected id and timestamp to be filled, got %+v", item)
	}
	if got, ok := repo.GetItem(ctx, item.ID); !ok || got.Name != "Scarf" {
		t.Errorf("created item not stored: %+v", got)
	}

	kept, err := repo.CreateItem(ctx, domain.InventoryItem{ID: "fixed", CreatedAt: 5})
	if err != nil || kept.ID != "fixed" || kept.CreatedAt != 5 {
		t.Errorf("explicit id and timestamp must be kept, got %+v, %v", kept, err)
	}

	bundle, err := repo.CreateBundle(ctx, domain.Bundle{Name: "Winter"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.ID == "" || bundle.ItemIDs == nil {
		t.Errorf("expected bundle id and empty reference list, got %+v", bundle)
	}
}
