package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/rl1809/westock/internal/core/domain"
	"github.com/rl1809/westock/internal/port"
)

const (
	lockTimeout       = 3 * time.Second
	lockRetryInterval = 100 * time.Millisecond
)

// LegacyFileStore is the pre-SQLite medium: the document as one JSON file.
// Access is serialized across processes with a sibling .lock file.
type LegacyFileStore struct {
	path string
	lock *flock.Flock
}

var _ port.LegacyStore = (*LegacyFileStore)(nil)

func NewLegacyFileStore(path string) *LegacyFileStore {
	return &LegacyFileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (l *LegacyFileStore) Read(ctx context.Context) (*domain.Document, error) {
	if _, err := os.Stat(l.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	unlock, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read legacy file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse legacy file: %w: %v", domain.ErrMalformedDocument, err)
	}
	doc = doc.Normalize()
	return &doc, nil
}

func (l *LegacyFileStore) Clear(ctx context.Context) error {
	unlock, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove legacy file: %w", err)
	}
	return nil
}

func (l *LegacyFileStore) acquire(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := l.lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquire legacy lock: %w", err)
	}
	if !locked {
		return nil, errors.New("could not acquire legacy lock")
	}
	return func() { _ = l.lock.Unlock() }, nil
}
