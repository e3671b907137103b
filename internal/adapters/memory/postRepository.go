package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"gramly/internal/core/post"
	"gramly/internal/ports"
	postPort "gramly/internal/ports/post"

	"github.com/gofrs/uuid"
)

type PostRepository struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]*post.Post
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[uuid.UUID]*post.Post)}
}

func (r *PostRepository) Create(ctx context.Context, p *post.Post) (*post.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[p.ID]; ok {
		return nil, ports.ErrDuplicate
	}
	stored := p.Clone()
	r.posts[p.ID] = stored
	return stored.Clone(), nil
}

func (r *PostRepository) FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *PostRepository) Find(ctx context.Context, filter postPort.PostFilter) ([]*post.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*post.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
			continue
		}
		out = append(out, p.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *PostRepository) AddToSet(ctx context.Context, id uuid.UUID, set post.Set, member uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return ports.ErrNotFound
	}
	ids := p.Members(set)
	if !slices.Contains(ids, member) {
		p.SetMembers(set, append(ids, member))
	}
	return nil
}

func (r *PostRepository) RemoveFromSet(ctx context.Context, id uuid.UUID, set post.Set, member uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return ports.ErrNotFound
	}
	p.SetMembers(set, slices.DeleteFunc(p.Members(set), func(m uuid.UUID) bool { return m == member }))
	return nil
}
