package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/westock/internal/core/domain"
	"github.com/rl1809/westock/internal/port"
)

const mysqlDuplicateEntry = 1062

// Caller-assigned ids have no length bound, so they are keyed by keyHash and
// stored in full alongside.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS user_documents (
		user_key   CHAR(64)  NOT NULL PRIMARY KEY,
		user_id    TEXT      NOT NULL,
		body       LONGTEXT  NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS share_records (
		id         VARCHAR(32) NOT NULL PRIMARY KEY,
		body       LONGTEXT    NOT NULL,
		created_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS share_items (
		record_id VARCHAR(32) NOT NULL,
		item_key  CHAR(64)    NOT NULL,
		item_id   TEXT        NOT NULL,
		body      LONGTEXT    NOT NULL,
		PRIMARY KEY (record_id, item_key)
	)`,
}

type MySQLAdapter struct {
	db *sql.DB
}

var _ port.RemoteStore = (*MySQLAdapter)(nil)

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, st := range schemaStatements {
		if _, err := m.db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) GetDocument(ctx context.Context, identity domain.Identity) (*domain.Document, error) {
	var body string
	err := m.db.QueryRowContext(ctx, `
		SELECT body FROM user_documents WHERE user_key = ?`, keyHash(string(identity)),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc = doc.Normalize()
	return &doc, nil
}

func (m *MySQLAdapter) PutDocument(ctx context.Context, identity domain.Identity, doc domain.Document) error {
	data, err := json.Marshal(doc.Normalize())
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO user_documents (user_key, user_id, body) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE body = VALUES(body)`,
		keyHash(string(identity)), string(identity), string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) CreateShareRecord(ctx context.Context, record domain.ShareRecord) (string, error) {
	for i := 0; i < maxIDCollisions; i++ {
		record.ID = newRecordID()
		data, err := json.Marshal(record)
		if err != nil {
			return "", fmt.Errorf("encode share record: %w", err)
		}

		_, err = m.db.ExecContext(ctx, `
			INSERT INTO share_records (id, body) VALUES (?, ?)`,
			record.ID, string(data),
		)
		if isDuplicateEntry(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("insert share record: %w", err)
		}
		return record.ID, nil
	}
	return "", ErrIDExhausted
}

func (m *MySQLAdapter) PutShareItem(ctx context.Context, recordID string, item domain.InventoryItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode share item: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO share_items (record_id, item_key, item_id, body) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE body = VALUES(body)`,
		recordID, keyHash(item.ID), item.ID, string(data),
	)
	if err != nil {
		return fmt.Errorf("insert share item %s: %w", item.ID, err)
	}
	return nil
}

func (m *MySQLAdapter) GetShareRecord(ctx context.Context, recordID string) (*domain.ShareRecord, error) {
	var body string
	err := m.db.QueryRowContext(ctx, `
		SELECT body FROM share_records WHERE id = ?`, recordID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query share record: %w", err)
	}

	var record domain.ShareRecord
	if err := json.Unmarshal([]byte(body), &record); err != nil {
		return nil, fmt.Errorf("decode share record: %w", err)
	}
	record.ID = recordID
	return &record, nil
}

func (m *MySQLAdapter) ListShareItems(ctx context.Context, recordID string) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT body FROM share_items WHERE record_id = ? ORDER BY item_id`, recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("query share items: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan share item: %w", err)
		}
		var item domain.InventoryItem
		if err := json.Unmarshal([]byte(body), &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate share items: %w", err)
	}
	return items, nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MySQLAdapter) Close() error {
	return m.db.Close()
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
