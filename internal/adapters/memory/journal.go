package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gramly/internal/core/desync"
	"gramly/internal/ports"

	"github.com/gofrs/uuid"
)

type Journal struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*desync.Entry
}

func NewJournal() *Journal {
	return &Journal{entries: make(map[uuid.UUID]*desync.Entry)}
}

func (j *Journal) Record(ctx context.Context, e *desync.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.Must(uuid.NewV4())
	}
	if e.Status == "" {
		e.Status = desync.StatusPending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	stored := *e
	j.entries[e.ID] = &stored
	return nil
}

func (j *Journal) Pending(ctx context.Context, limit int) ([]*desync.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]*desync.Entry, 0)
	for _, e := range j.entries {
		if e.Status == desync.StatusPending {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, k int) bool {
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (j *Journal) MarkDone(ctx context.Context, id uuid.UUID) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	e, ok := j.entries[id]
	if !ok {
		return ports.ErrNotFound
	}
	now := time.Now().UTC()
	e.Status = desync.StatusDone
	e.ProcessedAt = &now
	return nil
}

func (j *Journal) MarkAttempt(ctx context.Context, id uuid.UUID, lastErr string, failed bool) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	e, ok := j.entries[id]
	if !ok {
		return ports.ErrNotFound
	}
	e.Attempts++
	e.LastError = lastErr
	if failed {
		now := time.Now().UTC()
		e.Status = desync.StatusFailed
		e.ProcessedAt = &now
	}
	return nil
}

// All returns every entry regardless of status, oldest first.
func (j *Journal) All() []*desync.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]*desync.Entry, 0, len(j.entries))
	for _, e := range j.entries {
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, k int) bool {
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out
}
