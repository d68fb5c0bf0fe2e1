package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rl1809/westock/internal/core/domain"
)

func newTestShare(remote *mockRemote) (*ShareService, *Repository) {
	repo, _ := newTestRepository()
	return NewShareService(testLogger(), repo, remote, 0), repo
}

func TestShare_ExportImportScenario(t *testing.T) {
	remote := newMockRemote()
	sender, senderRepo := newTestShare(remote)
	ctx := context.Background()

	senderRepo.AddItem(ctx, tee())
	senderRepo.AddBundle(ctx, summer("1"))

	token, err := sender.Export(ctx, "b1")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.HasPrefix(token, "WS-") {
		t.Fatalf("unexpected token %q", token)
	}

	receiver, receiverRepo := newTestShare(remote)
	result, err := receiver.Import(ctx, token)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.ItemsAdded != 1 || !result.BundleAdded {
		t.Errorf("unexpected result: %+v", result)
	}

	doc := receiverRepo.Document(ctx)
	if len(doc.Items) != 1 || doc.Items[0] != tee() {
		t.Errorf("unexpected items: %+v", doc.Items)
	}
	if len(doc.Bundles) != 1 || doc.Bundles[0].ID != "b1" || doc.Bundles[0].ItemIDs[0] != "1" {
		t.Errorf("unexpected bundles: %+v", doc.Bundles)
	}
}

func TestShare_ImportTwiceIsIdempotent(t *testing.T) {
	remote := newMockRemote()
	sender, senderRepo := newTestShare(remote)
	ctx := context.Background()

	senderRepo.AddItem(ctx, tee())
	senderRepo.AddItem(ctx, domain.InventoryItem{ID: "2", Name: "Cap"})
	senderRepo.AddBundle(ctx, summer("1", "2"))
	token, _ := sender.Export(ctx, "b1")

	receiver, receiverRepo := newTestShare(remote)
	if _, err := receiver.Import(ctx, token); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	result, err := receiver.Import(ctx, token)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if result.ItemsAdded != 0 || result.BundleAdded {
		t.Errorf("second import must add nothing, got %+v", result)
	}

	doc := receiverRepo.Document(ctx)
	if len(doc.Items) != 2 || len(doc.Bundles) != 1 {
		t.Errorf("unexpected document: %d items, %d bundles", len(doc.Items), len(doc.Bundles))
	}
	if doc.Items[0].ID != "1" || doc.Items[1].ID != "2" {
		t.Errorf("imported items should follow bundle order, got %s, %s", doc.Items[0].ID, doc.Items[1].ID)
	}
}

func TestShare_ImportKeepsLocalOnConflict(t *testing.T) {
	remote := newMockRemote()
	sender, senderRepo := newTestShare(remote)
	ctx := context.Background()

	senderRepo.AddItem(ctx, tee())
	senderRepo.AddBundle(ctx, summer("1"))
	token, _ := sender.Export(ctx, "b1")

	receiver, receiverRepo := newTestShare(remote)
	local := tee()
	local.Name = "My own tee"
	receiverRepo.AddItem(ctx, local)

	result, err := receiver.Import(ctx, token)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.ItemsAdded != 0 || !result.BundleAdded {
		t.Errorf("unexpected result: %+v", result)
	}
	got, _ := receiverRepo.GetItem(ctx, "1")
	if got.Name != "My own tee" {
		t.Errorf("local item must win, got %q", got.Name)
	}
}

func TestShare_OversizeItemIsDegraded(t *testing.T) {
	remote := newMockRemote()
	repo, _ := newTestRepository()
	sender := NewShareService(testLogger(), repo, remote, 1024)
	ctx := context.Background()

	big := tee()
	big.ImageURL = "data:image/jpeg;base64," + strings.Repeat("A", 4096)
	big.Note = "cotton"
	big.Location = "Shelf A"
	repo.AddItem(ctx, big)
	repo.AddItem(ctx, domain.InventoryItem{ID: "2", Name: "Cap", ImageURL: "data:image/png;base64,AA"})
	repo.AddBundle(ctx, summer("1", "2"))

	token, err := sender.Export(ctx, "b1")
	if err != nil {
		t.Fatalf("export must not fail on oversize items: %v", err)
	}

	receiver, receiverRepo := newTestShare(remote)
	if _, err := receiver.Import(ctx, token); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	got, ok := receiverRepo.GetItem(ctx, "1")
	if !ok {
		t.Fatal("degraded item must be importable")
	}
	if got.ImageURL != "" {
		t.Error("expected image to be stripped")
	}
	if got.Note != "cotton\n"+domain.MediaOmittedNote {
		t.Errorf("unexpected note %q", got.Note)
	}
	if got.Name != big.Name || got.Location != big.Location || got.Stock != big.Stock || got.CreatedAt != big.CreatedAt {
		t.Errorf("other fields must be intact: %+v", got)
	}

	small, _ := receiverRepo.GetItem(ctx, "2")
	if small.ImageURL == "" {
		t.Error("small items keep their image")
	}
}

func TestShare_ExportOmitsMissingItems(t *testing.T) {
	remote := newMockRemote()
	sender, repo := newTestShare(remote)
	ctx := context.Background()

	repo.AddItem(ctx, tee())
	repo.AddBundle(ctx, summer("1", "ghost"))

	token, err := sender.Export(ctx, "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, _ := domain.ParseToken(token)
	if remote.records[id].ItemCount != 1 || len(remote.items[id]) != 1 {
		t.Errorf("expected 1 exported item, got record=%+v items=%d", remote.records[id], len(remote.items[id]))
	}
}

func TestShare_ExportErrors(t *testing.T) {
	remote := newMockRemote()
	sender, repo := newTestShare(remote)
	ctx := context.Background()

	token, err := sender.Export(ctx, "nope")
	if token != "" || !errors.Is(err, domain.ErrBundleNotFound) {
		t.Errorf("expected ErrBundleNotFound and empty token, got %q, %v", token, err)
	}

	repo.AddItem(ctx, tee())
	repo.AddBundle(ctx, summer("1"))
	remote.itemErr = errNetwork

	token, err = sender.Export(ctx, "b1")
	if token != "" || !errors.Is(err, errNetwork) {
		t.Errorf("expected network error and empty token, got %q, %v", token, err)
	}
}

func TestShare_ImportErrors(t *testing.T) {
	remote := newMockRemote()
	receiver, repo := newTestShare(remote)
	ctx := context.Background()
	repo.AddItem(ctx, tee())

	for _, token := range []string{"", "abc", "ws-rec1", "WS-"} {
		if _, err := receiver.Import(ctx, token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}

	if _, err := receiver.Import(ctx, "WS-missing"); !errors.Is(err, domain.ErrShareNotFound) {
		t.Errorf("expected ErrShareNotFound, got %v", err)
	}

	remote.records["odd"] = domain.ShareRecord{ID: "odd", Type: "something_else", Bundle: summer()}
	if _, err := receiver.Import(ctx, "WS-odd"); !errors.Is(err, ErrMalformedShare) {
		t.Errorf("expected ErrMalformedShare, got %v", err)
	}

	remote.records["ok"] = domain.ShareRecord{ID: "ok", Type: domain.ShareTypeTransfer, Bundle: summer()}
	remote.getErr = errNetwork
	if _, err := receiver.Import(ctx, "WS-ok"); !errors.Is(err, errNetwork) {
		t.Errorf("expected network error, got %v", err)
	}

	doc := repo.Document(ctx)
	if len(doc.Items) != 1 || len(doc.Bundles) != 0 {
		t.Errorf("failed imports must leave local untouched, got %+v", doc)
	}
}

func TestShare_ImportToleratesShortRecord(t *testing.T) {
	remote := newMockRemote()
	receiver, repo := newTestShare(remote)
	ctx := context.Background()

	remote.records["short"] = domain.ShareRecord{
		ID:        "short",
		Type:      domain.ShareTypeTransfer,
		Bundle:    summer("1", "2", "3"),
		ItemCount: 3,
	}
	remote.items["short"] = map[string]domain.InventoryItem{"2": {ID: "2", Name: "Cap"}}

	result, err := receiver.Import(ctx, " WS-short ")
	if err != nil {
		t.Fatalf("import must tolerate missing items: %v", err)
	}
	if result.ItemsAdded != 1 || !result.BundleAdded || result.ItemsMissing != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if _, ok := repo.GetItem(ctx, "2"); !ok {
		t.Error("expected fetched item to be imported")
	}
}

func TestShare_ImportPushesWhenBound(t *testing.T) {
	remote := newMockRemote()
	sender, senderRepo := newTestShare(remote)
	ctx := context.Background()

	senderRepo.AddItem(ctx, tee())
	senderRepo.AddBundle(ctx, summer("1"))
	token, _ := sender.Export(ctx, "b1")

	receiver, receiverRepo := newTestShare(remote)
	syncSvc := NewSyncService(testLogger(), receiverRepo, remote, 0)
	syncSvc.Bind(ctx, "bob")

	if _, err := receiver.Import(ctx, token); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	syncSvc.Close()

	got := remote.docs["bob"]
	if len(got.Items) != 1 || len(got.Bundles) != 1 {
		t.Errorf("expected imported data mirrored for bob, got %+v", got)
	}
}
