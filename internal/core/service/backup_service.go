package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rl1809/westock/internal/core/domain"
)

const maxBackupBytes = 256 << 20

type BackupService struct {
	repo *Repository
}

func NewBackupService(repo *Repository) *BackupService {
	return &BackupService{repo: repo}
}

// Filename is the suggested name for a backup taken at now.
func (s *BackupService) Filename(now time.Time) string {
	return "westock_backup_" + now.Format(time.DateOnly) + ".json"
}

// Export writes the whole document as indented JSON.
func (s *BackupService) Export(ctx context.Context, w io.Writer) error {
	data, err := json.MarshalIndent(s.repo.Document(ctx), "", "  ")
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Import replaces the local document with the backup read from r. There is
// no merge; a malformed backup leaves local data untouched.
func (s *BackupService) Import(ctx context.Context, r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, maxBackupBytes))
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	doc, err := domain.ParseBackup(data)
	if err != nil {
		return err
	}
	for _, item := range doc.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidBackup, err)
		}
	}

	return s.repo.Replace(ctx, doc)
}
