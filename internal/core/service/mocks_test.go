package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/rl1809/westock/internal/core/domain"
)

var errNetwork = errors.New("network unreachable")

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Mock LocalStore
type mockLocalStore struct {
	mu      sync.Mutex
	doc     domain.Document
	pin     string
	saveErr error
	saves   int
}

func newMockLocalStore() *mockLocalStore {
	return &mockLocalStore{doc: domain.EmptyDocument()}
}

func (m *mockLocalStore) Load(ctx context.Context) domain.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Clone()
}

func (m *mockLocalStore) Save(ctx context.Context, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc = doc.Clone()
	m.saves++
	return nil
}

func (m *mockLocalStore) Usage(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockLocalStore) PIN(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pin, nil
}

func (m *mockLocalStore) SetPIN(ctx context.Context, pin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pin = pin
	return nil
}

func (m *mockLocalStore) ClearPIN(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pin = ""
	return nil
}

// Mock remote store covering both the per-user documents and share records
type mockRemote struct {
	mu        sync.Mutex
	docs      map[domain.Identity]domain.Document
	records   map[string]domain.ShareRecord
	items     map[string]map[string]domain.InventoryItem
	puts      []pushJob
	nextID    int
	getErr    error
	putErr    error
	createErr error
	itemErr   error
	putGate   chan struct{}
}

func newMockRemote() *mockRemote {
	return &mockRemote{
		docs:    make(map[domain.Identity]domain.Document),
		records: make(map[string]domain.ShareRecord),
		items:   make(map[string]map[string]domain.InventoryItem),
	}
}

func (m *mockRemote) GetDocument(ctx context.Context, identity domain.Identity) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	doc, ok := m.docs[identity]
	if !ok {
		return nil, nil
	}
	doc = doc.Clone()
	return &doc, nil
}

func (m *mockRemote) PutDocument(ctx context.Context, identity domain.Identity, doc domain.Document) error {
	if m.putGate != nil {
		<-m.putGate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, pushJob{identity: identity, doc: doc.Clone()})
	if m.putErr != nil {
		return m.putErr
	}
	m.docs[identity] = doc.Clone()
	return nil
}

func (m *mockRemote) Ping(ctx context.Context) error {
	return nil
}

func (m *mockRemote) CreateShareRecord(ctx context.Context, record domain.ShareRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextID++
	record.ID = fmt.Sprintf("rec%d", m.nextID)
	m.records[record.ID] = record
	m.items[record.ID] = make(map[string]domain.InventoryItem)
	return record.ID, nil
}

func (m *mockRemote) PutShareItem(ctx context.Context, recordID string, item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.itemErr != nil {
		return m.itemErr
	}
	m.items[recordID][item.ID] = item
	return nil
}

func (m *mockRemote) GetShareRecord(ctx context.Context, recordID string) (*domain.ShareRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	record, ok := m.records[recordID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *mockRemote) ListShareItems(ctx context.Context, recordID string) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var items []domain.InventoryItem
	for _, it := range m.items[recordID] {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *mockRemote) putCalls() []pushJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pushJob(nil), m.puts...)
}

// recordingObserver collects documents passed to DocumentSaved
type recordingObserver struct {
	mu   sync.Mutex
	docs []domain.Document
}

func (o *recordingObserver) DocumentSaved(doc domain.Document) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.docs = append(o.docs, doc)
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.docs)
}

func tee() domain.InventoryItem {
	return domain.InventoryItem{
		ID:        "1",
		Name:      "Tee",
		Category:  "Tops",
		Stock:     domain.Stock{S: 2},
		CreatedAt: 1700000000000,
	}
}

func summer(ids ...string) domain.Bundle {
	return domain.Bundle{
		ID:        "b1",
		Name:      "Summer",
		ItemIDs:   ids,
		CreatedAt: 1700000000001,
	}
}
