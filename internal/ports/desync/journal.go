package desync

import (
	"context"

	"gramly/internal/core/desync"

	"github.com/gofrs/uuid"
)

// Journal persists failed secondary writes until the repair worker replays them.
type Journal interface {
	// Record fills in ID, Status and CreatedAt when they are zero.
	Record(ctx context.Context, e *desync.Entry) error
	// Pending returns up to limit pending entries, oldest first.
	Pending(ctx context.Context, limit int) ([]*desync.Entry, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	// MarkAttempt bumps Attempts and stores lastErr; failed moves the entry out of pending.
	MarkAttempt(ctx context.Context, id uuid.UUID, lastErr string, failed bool) error
}
