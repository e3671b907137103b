// Package memory holds map backed stores used by tests and by STORE_DRIVER=memory.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"gramly/internal/core/user"
	"gramly/internal/ports"
	userPort "gramly/internal/ports/user"

	"github.com/gofrs/uuid"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*user.User)}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; ok {
		return nil, ports.ErrDuplicate
	}
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, ports.ErrDuplicate
		}
	}

	stored := u.Clone()
	r.users[u.ID] = stored
	return stored.Clone(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u.Clone())
		}
	}
	return out, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u.Clone(), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *UserRepository) FindAllExcept(ctx context.Context, id uuid.UUID) ([]*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*user.User, 0, len(r.users))
	for _, u := range r.users {
		if u.ID != id {
			out = append(out, u.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update userPort.ProfileUpdate) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.Gender != nil {
		u.Gender = *update.Gender
	}
	if update.ProfilePicture != nil {
		u.ProfilePicture = *update.ProfilePicture
	}
	return u.Clone(), nil
}

func (r *UserRepository) AddToSet(ctx context.Context, id uuid.UUID, set user.Set, member uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ports.ErrNotFound
	}
	ids := u.Members(set)
	if !slices.Contains(ids, member) {
		u.SetMembers(set, append(ids, member))
	}
	return nil
}

func (r *UserRepository) RemoveFromSet(ctx context.Context, id uuid.UUID, set user.Set, member uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ports.ErrNotFound
	}
	u.SetMembers(set, slices.DeleteFunc(u.Members(set), func(m uuid.UUID) bool { return m == member }))
	return nil
}
