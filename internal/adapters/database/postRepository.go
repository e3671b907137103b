package database

import (
	"context"
	"fmt"

	"gramly/internal/core/post"
	"gramly/internal/ports"
	postPort "gramly/internal/ports/post"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// PostRepositoryDatabase stores posts in MySQL. Likes and comment ids live in set_members.
type PostRepositoryDatabase struct {
	db *gorm.DB
}

func NewPostRepositoryDatabase(db *gorm.DB) *PostRepositoryDatabase {
	return &PostRepositoryDatabase{db: db}
}

func (repo *PostRepositoryDatabase) Create(ctx context.Context, p *post.Post) (*post.Post, error) {
	if err := repo.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (repo *PostRepositoryDatabase) FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	var p post.Post
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	if err := repo.attachSets(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (repo *PostRepositoryDatabase) Find(ctx context.Context, filter postPort.PostFilter) ([]*post.Post, error) {
	q := repo.db.WithContext(ctx).Order("created_at DESC")
	if filter.AuthorID != nil {
		q = q.Where("author_id = ?", *filter.AuthorID)
	}

	var posts []*post.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	if err := repo.attachSets(ctx, posts...); err != nil {
		return nil, err
	}
	return posts, nil
}

// Delete removes the post row and its set rows in one transaction.
func (repo *PostRepositoryDatabase) Delete(ctx context.Context, id uuid.UUID) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&post.Post{})
		if res.Error != nil {
			return fmt.Errorf("delete post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ports.ErrNotFound
		}
		if err := tx.Where("owner_id = ?", id).Delete(&SetMember{}).Error; err != nil {
			return fmt.Errorf("delete post sets: %w", err)
		}
		return nil
	})
}

func (repo *PostRepositoryDatabase) AddToSet(ctx context.Context, id uuid.UUID, set post.Set, member uuid.UUID) error {
	return addMember(ctx, repo.db, &post.Post{}, id, string(set), member)
}

func (repo *PostRepositoryDatabase) RemoveFromSet(ctx context.Context, id uuid.UUID, set post.Set, member uuid.UUID) error {
	return removeMember(ctx, repo.db, &post.Post{}, id, string(set), member)
}

func (repo *PostRepositoryDatabase) attachSets(ctx context.Context, posts ...*post.Post) error {
	ids := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	members, err := loadMembers(ctx, repo.db, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		for _, s := range post.Sets {
			ids := members[p.ID][string(s)]
			if ids == nil {
				ids = []uuid.UUID{}
			}
			p.SetMembers(s, ids)
		}
	}
	return nil
}
