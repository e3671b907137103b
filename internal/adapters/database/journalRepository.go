package database

import (
	"context"
	"fmt"
	"time"

	"gramly/internal/core/desync"
	"gramly/internal/ports"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// JournalRepositoryDatabase keeps desync entries in the desync_entries table.
type JournalRepositoryDatabase struct {
	db *gorm.DB
}

func NewJournalRepositoryDatabase(db *gorm.DB) *JournalRepositoryDatabase {
	return &JournalRepositoryDatabase{db: db}
}

func (repo *JournalRepositoryDatabase) Record(ctx context.Context, e *desync.Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.Must(uuid.NewV4())
	}
	if e.Status == "" {
		e.Status = desync.StatusPending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := repo.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("record desync entry: %w", err)
	}
	return nil
}

func (repo *JournalRepositoryDatabase) Pending(ctx context.Context, limit int) ([]*desync.Entry, error) {
	var entries []*desync.Entry
	if err := repo.db.WithContext(ctx).
		Where("status = ?", desync.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("find pending desync entries: %w", err)
	}
	return entries, nil
}

func (repo *JournalRepositoryDatabase) MarkDone(ctx context.Context, id uuid.UUID) error {
	res := repo.db.WithContext(ctx).Model(&desync.Entry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       desync.StatusDone,
			"processed_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("mark desync entry done: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (repo *JournalRepositoryDatabase) MarkAttempt(ctx context.Context, id uuid.UUID, lastErr string, failed bool) error {
	changes := map[string]any{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastErr,
	}
	if failed {
		changes["status"] = desync.StatusFailed
		changes["processed_at"] = time.Now().UTC()
	}

	res := repo.db.WithContext(ctx).Model(&desync.Entry{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return fmt.Errorf("mark desync attempt: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}
