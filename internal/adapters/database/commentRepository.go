package database

import (
	"context"
	"fmt"

	"gramly/internal/core/comment"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type CommentRepositoryDatabase struct {
	db *gorm.DB
}

func NewCommentRepositoryDatabase(db *gorm.DB) *CommentRepositoryDatabase {
	return &CommentRepositoryDatabase{db: db}
}

func (repo *CommentRepositoryDatabase) Create(ctx context.Context, c *comment.Comment) (*comment.Comment, error) {
	if err := repo.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (repo *CommentRepositoryDatabase) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*comment.Comment, error) {
	if len(ids) == 0 {
		return []*comment.Comment{}, nil
	}

	var found []*comment.Comment
	if err := repo.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}

	byID := make(map[uuid.UUID]*comment.Comment, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := make([]*comment.Comment, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (repo *CommentRepositoryDatabase) FindByPostID(ctx context.Context, postID uuid.UUID) ([]*comment.Comment, error) {
	var comments []*comment.Comment
	if err := repo.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("find comments by post: %w", err)
	}
	return comments, nil
}

func (repo *CommentRepositoryDatabase) DeleteByPostID(ctx context.Context, postID uuid.UUID) (int64, error) {
	res := repo.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&comment.Comment{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete comments: %w", res.Error)
	}
	return res.RowsAffected, nil
}
