package database

import (
	"context"
	"fmt"

	"gramly/internal/core/user"
	userPort "gramly/internal/ports/user"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// UserRepositoryDatabase stores users in MySQL. Relationship sets live in set_members.
type UserRepositoryDatabase struct {
	db *gorm.DB
}

func NewUserRepositoryDatabase(db *gorm.DB) *UserRepositoryDatabase {
	return &UserRepositoryDatabase{db: db}
}

func (repo *UserRepositoryDatabase) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if err := repo.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (repo *UserRepositoryDatabase) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	if err := repo.attachSets(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (repo *UserRepositoryDatabase) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	if len(ids) == 0 {
		return []*user.User{}, nil
	}

	var found []*user.User
	if err := repo.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	if err := repo.attachSets(ctx, found...); err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*user.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]*user.User, 0, len(found))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (repo *UserRepositoryDatabase) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	if err := repo.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	if err := repo.attachSets(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (repo *UserRepositoryDatabase) FindAllExcept(ctx context.Context, id uuid.UUID) ([]*user.User, error) {
	var users []*user.User
	if err := repo.db.WithContext(ctx).
		Where("id <> ?", id).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	if err := repo.attachSets(ctx, users...); err != nil {
		return nil, err
	}
	return users, nil
}

func (repo *UserRepositoryDatabase) UpdateProfile(ctx context.Context, id uuid.UUID, update userPort.ProfileUpdate) (*user.User, error) {
	changes := map[string]any{}
	if update.Bio != nil {
		changes["bio"] = *update.Bio
	}
	if update.Gender != nil {
		changes["gender"] = *update.Gender
	}
	if update.ProfilePicture != nil {
		changes["profile_picture"] = *update.ProfilePicture
	}

	if len(changes) > 0 {
		res := repo.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, fmt.Errorf("update profile: %w", res.Error)
		}
	}
	return repo.FindByID(ctx, id)
}

func (repo *UserRepositoryDatabase) AddToSet(ctx context.Context, id uuid.UUID, set user.Set, member uuid.UUID) error {
	return addMember(ctx, repo.db, &user.User{}, id, string(set), member)
}

func (repo *UserRepositoryDatabase) RemoveFromSet(ctx context.Context, id uuid.UUID, set user.Set, member uuid.UUID) error {
	return removeMember(ctx, repo.db, &user.User{}, id, string(set), member)
}

func (repo *UserRepositoryDatabase) attachSets(ctx context.Context, users ...*user.User) error {
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	members, err := loadMembers(ctx, repo.db, ids)
	if err != nil {
		return err
	}
	for _, u := range users {
		for _, s := range user.Sets {
			ids := members[u.ID][string(s)]
			if ids == nil {
				ids = []uuid.UUID{}
			}
			u.SetMembers(s, ids)
		}
	}
	return nil
}
