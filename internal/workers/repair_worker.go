package workers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"gramly/internal/core/desync"
	postEntity "gramly/internal/core/post"
	userEntity "gramly/internal/core/user"
	"gramly/internal/metrics"
	"gramly/internal/ports"
	commentPort "gramly/internal/ports/comment"
	desyncPort "gramly/internal/ports/desync"
	postPort "gramly/internal/ports/post"
	userPort "gramly/internal/ports/user"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

var errUnknownEntry = errors.New("unknown desync target or action")

// RepairWorker replays journaled secondary writes until the denormalized sets agree again.
type RepairWorker struct {
	Journal     desyncPort.Journal
	UserRepo    userPort.UserRepository
	PostRepo    postPort.PostRepository
	CommentRepo commentPort.CommentRepository
	BatchSize   int
	Interval    time.Duration
	MaxAttempts int
	Metrics     *metrics.Collector
	Logger      *zap.Logger
}

func NewRepairWorker(
	journal desyncPort.Journal,
	userRepo userPort.UserRepository,
	postRepo postPort.PostRepository,
	commentRepo commentPort.CommentRepository,
	batchSize int,
	interval time.Duration,
	maxAttempts int,
	collector *metrics.Collector,
	logger *zap.Logger,
) *RepairWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepairWorker{
		Journal:     journal,
		UserRepo:    userRepo,
		PostRepo:    postRepo,
		CommentRepo: commentRepo,
		BatchSize:   batchSize,
		Interval:    interval,
		MaxAttempts: maxAttempts,
		Metrics:     collector,
		Logger:      logger,
	}
}

// Run polls the journal every Interval until ctx is cancelled.
func (w *RepairWorker) Run(ctx context.Context) {
	w.Logger.Info("repair worker started", zap.Duration("interval", w.Interval), zap.Int("batchSize", w.BatchSize))
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.Logger.Error("repair pass failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			w.Logger.Info("repair worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce processes one batch of pending entries and returns how many were repaired.
func (w *RepairWorker) RunOnce(ctx context.Context) (int, error) {
	pending, err := w.Journal.Pending(ctx, w.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending desync entries: %w", err)
	}

	repaired := 0
	for _, e := range pending {
		if ctx.Err() != nil {
			return repaired, ctx.Err()
		}
		if w.process(ctx, e) {
			repaired++
		}
	}
	if len(pending) > 0 {
		w.Logger.Info("repair pass finished", zap.Int("pending", len(pending)), zap.Int("repaired", repaired))
	}
	return repaired, nil
}

func (w *RepairWorker) process(ctx context.Context, e *desync.Entry) bool {
	err := w.apply(ctx, e)
	switch {
	case err == nil, errors.Is(err, ports.ErrNotFound):
		// A missing owner means the entity is gone and there is nothing left to fix.
		if err := w.Journal.MarkDone(ctx, e.ID); err != nil {
			w.Logger.Warn("could not mark desync entry done", zap.String("entryID", e.ID.String()), zap.Error(err))
		}
		w.Metrics.Repair("repaired")
		return true

	case errors.Is(err, errUnknownEntry) || e.Attempts+1 >= w.MaxAttempts:
		w.Logger.Error("giving up on desync entry",
			zap.String("entryID", e.ID.String()),
			zap.String("operation", e.Operation),
			zap.String("ownerID", e.OwnerID.String()),
			zap.Int("attempts", e.Attempts+1),
			zap.Error(err),
		)
		if err := w.Journal.MarkAttempt(ctx, e.ID, err.Error(), true); err != nil {
			w.Logger.Warn("could not mark desync entry failed", zap.String("entryID", e.ID.String()), zap.Error(err))
		}
		w.Metrics.Repair("failed")
		return false

	default:
		w.Logger.Warn("desync repair attempt failed", zap.String("entryID", e.ID.String()), zap.Error(err))
		if err := w.Journal.MarkAttempt(ctx, e.ID, err.Error(), false); err != nil {
			w.Logger.Warn("could not record desync attempt", zap.String("entryID", e.ID.String()), zap.Error(err))
		}
		w.Metrics.Repair("retry")
		return false
	}
}

func (w *RepairWorker) apply(ctx context.Context, e *desync.Entry) error {
	wanted, err := w.stillWanted(ctx, e)
	if err != nil {
		return err
	}
	if !wanted {
		w.Logger.Debug("desync entry superseded", zap.String("entryID", e.ID.String()))
		return nil
	}

	switch e.Target {
	case desync.TargetUser:
		set := userEntity.Set(e.Set)
		if !set.Valid() {
			return errUnknownEntry
		}
		switch e.Action {
		case desync.ActionAdd:
			return w.UserRepo.AddToSet(ctx, e.OwnerID, set, e.MemberID)
		case desync.ActionRemove:
			return w.UserRepo.RemoveFromSet(ctx, e.OwnerID, set, e.MemberID)
		}

	case desync.TargetPost:
		set := postEntity.Set(e.Set)
		if !set.Valid() {
			return errUnknownEntry
		}
		switch e.Action {
		case desync.ActionAdd:
			return w.PostRepo.AddToSet(ctx, e.OwnerID, set, e.MemberID)
		case desync.ActionRemove:
			return w.PostRepo.RemoveFromSet(ctx, e.OwnerID, set, e.MemberID)
		}

	case desync.TargetComments:
		if e.Action == desync.ActionPurge {
			_, err := w.CommentRepo.DeleteByPostID(ctx, e.OwnerID)
			return err
		}
	}
	return errUnknownEntry
}

// stillWanted checks the primary side of an entry so a replay never undoes a later mutation.
func (w *RepairWorker) stillWanted(ctx context.Context, e *desync.Entry) (bool, error) {
	switch {
	case e.Target == desync.TargetUser && e.Set == string(userEntity.SetFollowers):
		follower, err := w.UserRepo.FindByID(ctx, e.MemberID)
		if errors.Is(err, ports.ErrNotFound) {
			return e.Action == desync.ActionRemove, nil
		}
		if err != nil {
			return false, err
		}
		follows := slices.Contains(follower.Following, e.OwnerID)
		return follows == (e.Action == desync.ActionAdd), nil

	case e.Target == desync.TargetUser && e.Set == string(userEntity.SetPosts) && e.Action == desync.ActionAdd:
		return w.exists(w.PostRepo.FindByID(ctx, e.MemberID))

	case e.Target == desync.TargetPost && e.Set == string(postEntity.SetComments) && e.Action == desync.ActionAdd:
		found, err := w.CommentRepo.FindByIDs(ctx, []uuid.UUID{e.MemberID})
		if err != nil {
			return false, err
		}
		return len(found) == 1, nil
	}
	return true, nil
}

func (w *RepairWorker) exists(_ *postEntity.Post, err error) (bool, error) {
	if errors.Is(err, ports.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
