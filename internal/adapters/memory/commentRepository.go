package memory

import (
	"context"
	"sort"
	"sync"

	"gramly/internal/core/comment"
	"gramly/internal/ports"

	"github.com/gofrs/uuid"
)

type CommentRepository struct {
	mu       sync.RWMutex
	comments map[uuid.UUID]*comment.Comment
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{comments: make(map[uuid.UUID]*comment.Comment)}
}

func (r *CommentRepository) Create(ctx context.Context, c *comment.Comment) (*comment.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[c.ID]; ok {
		return nil, ports.ErrDuplicate
	}
	stored := *c
	r.comments[c.ID] = &stored
	out := stored
	return &out, nil
}

func (r *CommentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*comment.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*comment.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.comments[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *CommentRepository) FindByPostID(ctx context.Context, postID uuid.UUID) ([]*comment.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*comment.Comment, 0)
	for _, c := range r.comments {
		if c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CommentRepository) DeleteByPostID(ctx context.Context, postID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, c := range r.comments {
		if c.PostID == postID {
			delete(r.comments, id)
			n++
		}
	}
	return n, nil
}
