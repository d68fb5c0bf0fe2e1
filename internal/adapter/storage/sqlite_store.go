package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rl1809/westock/internal/core/domain"
	"github.com/rl1809/westock/internal/port"
)

const (
	documentKey = "we_stock_data_v1"
	pinKey      = "we_stock_pin"

	legacyMigrationKey     = "migration.legacy_file"
	legacyMigrationVersion = "1"
)

// OpenSQLite opens (creating if needed) the local database file and applies
// the schema. modernc.org/sqlite registers the driver as "sqlite".
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}

	return db, nil
}

// SQLiteStore keeps the whole document under one key of a key-value table.
type SQLiteStore struct {
	db       *sql.DB
	maxBytes int64
	log      *slog.Logger
}

var _ port.LocalStore = (*SQLiteStore)(nil)

// NewSQLiteStore wraps an opened database. maxBytes <= 0 disables the quota.
func NewSQLiteStore(db *sql.DB, maxBytes int64, log *slog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:       db,
		maxBytes: maxBytes,
		log:      log.With("component", "local_store"),
	}
}

func (s *SQLiteStore) Load(ctx context.Context) domain.Document {
	raw, ok, err := s.get(ctx, documentKey)
	if err != nil {
		s.log.Warn("load document failed, using empty document", slog.Any("error", err))
		return domain.EmptyDocument()
	}
	if !ok {
		return domain.EmptyDocument()
	}

	var doc domain.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		s.log.Warn("stored document is malformed, using empty document", slog.Any("error", err))
		return domain.EmptyDocument()
	}
	return doc.Normalize()
}

func (s *SQLiteStore) Save(ctx context.Context, doc domain.Document) error {
	data, err := json.Marshal(doc.Normalize())
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return fmt.Errorf("document is %d bytes, limit %d: %w", len(data), s.maxBytes, domain.ErrQuotaExceeded)
	}

	if err := s.put(ctx, documentKey, string(data)); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Usage(ctx context.Context) (int64, error) {
	var n sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT length(CAST(v AS BLOB)) FROM kv WHERE k = ?`, documentKey).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query usage: %w", err)
	}
	return n.Int64, nil
}

func (s *SQLiteStore) PIN(ctx context.Context) (string, error) {
	v, _, err := s.get(ctx, pinKey)
	if err != nil {
		return "", fmt.Errorf("read pin: %w", err)
	}
	return v, nil
}

func (s *SQLiteStore) SetPIN(ctx context.Context, pin string) error {
	if err := s.put(ctx, pinKey, pin); err != nil {
		return fmt.Errorf("save pin: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearPIN(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, pinKey); err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

// Migrate copies a document forward from the legacy medium once. The step is
// recorded in the meta table and is a no-op on every later run. An unreadable
// legacy document is skipped and left in place; any other failure leaves the
// marker unset so the next start retries.
func (s *SQLiteStore) Migrate(ctx context.Context, legacy port.LegacyStore) error {
	var version string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, legacyMigrationKey).Scan(&version)
	if err == nil && version == legacyMigrationVersion {
		return nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read migration marker: %w", err)
	}

	_, hasDoc, err := s.get(ctx, documentKey)
	if err != nil {
		return fmt.Errorf("check local document: %w", err)
	}

	if !hasDoc {
		doc, err := legacy.Read(ctx)
		if errors.Is(err, domain.ErrMalformedDocument) {
			s.log.Warn("legacy document unreadable, starting empty", slog.Any("error", err))
			doc = nil
		} else if err != nil {
			return fmt.Errorf("read legacy document: %w", err)
		}
		if doc != nil {
			if err := s.Save(ctx, *doc); err != nil {
				return fmt.Errorf("copy legacy document: %w", err)
			}
			if err := legacy.Clear(ctx); err != nil {
				return fmt.Errorf("clear legacy document: %w", err)
			}
			s.log.Info("migrated legacy document",
				slog.Int("items", len(doc.Items)),
				slog.Int("bundles", len(doc.Bundles)),
			)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meta (k, v) VALUES (?, ?)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		legacyMigrationKey, legacyMigrationVersion,
	)
	if err != nil {
		return fmt.Errorf("record migration marker: %w", err)
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLiteStore) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (k, v) VALUES (?, ?)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		key, value,
	)
	if isDiskFull(err) {
		return fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
	}
	return err
}

func isDiskFull(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_FULL
}
