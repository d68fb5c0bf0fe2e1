package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/westock/internal/core/domain"
	"github.com/rl1809/westock/internal/port"
)

const (
	documentKeyPrefix = "doc:"
	shareKeyPrefix    = "share:"
	shareItemsSuffix  = ":items"
)

var ErrIDExhausted = errors.New("could not allocate a unique share id")

type RedisAdapter struct {
	client *redis.Client
}

var _ port.RemoteStore = (*RedisAdapter)(nil)

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) GetDocument(ctx context.Context, identity domain.Identity) (*domain.Document, error) {
	data, err := r.client.Get(ctx, documentKeyPrefix+string(identity)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc = doc.Normalize()
	return &doc, nil
}

func (r *RedisAdapter) PutDocument(ctx context.Context, identity domain.Identity, doc domain.Document) error {
	data, err := json.Marshal(doc.Normalize())
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := r.client.Set(ctx, documentKeyPrefix+string(identity), data, 0).Err(); err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// CreateShareRecord claims a fresh key with SETNX so two exports can never
// share an id.
func (r *RedisAdapter) CreateShareRecord(ctx context.Context, record domain.ShareRecord) (string, error) {
	for i := 0; i < maxIDCollisions; i++ {
		record.ID = newRecordID()
		data, err := json.Marshal(record)
		if err != nil {
			return "", fmt.Errorf("encode share record: %w", err)
		}

		ok, err := r.client.SetNX(ctx, shareKeyPrefix+record.ID, data, 0).Result()
		if err != nil {
			return "", fmt.Errorf("create share record: %w", err)
		}
		if ok {
			return record.ID, nil
		}
	}
	return "", ErrIDExhausted
}

func (r *RedisAdapter) PutShareItem(ctx context.Context, recordID string, item domain.InventoryItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode share item: %w", err)
	}
	key := shareKeyPrefix + recordID + shareItemsSuffix
	if err := r.client.HSet(ctx, key, item.ID, data).Err(); err != nil {
		return fmt.Errorf("put share item %s: %w", item.ID, err)
	}
	return nil
}

func (r *RedisAdapter) GetShareRecord(ctx context.Context, recordID string) (*domain.ShareRecord, error) {
	data, err := r.client.Get(ctx, shareKeyPrefix+recordID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get share record: %w", err)
	}

	var record domain.ShareRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode share record: %w", err)
	}
	record.ID = recordID
	return &record, nil
}

func (r *RedisAdapter) ListShareItems(ctx context.Context, recordID string) ([]domain.InventoryItem, error) {
	entries, err := r.client.HGetAll(ctx, shareKeyPrefix+recordID+shareItemsSuffix).Result()
	if err != nil {
		return nil, fmt.Errorf("list share items: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]domain.InventoryItem, 0, len(entries))
	for _, k := range keys {
		var item domain.InventoryItem
		if err := json.Unmarshal([]byte(entries[k]), &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisAdapter) Close() error {
	return r.client.Close()
}
