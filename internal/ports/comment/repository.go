package comment

import (
	"context"
	"time"

	"gramly/internal/core/comment"
	userPort "gramly/internal/ports/user"

	"github.com/gofrs/uuid"
)

// CommentRepository is the comment half of the content store.
type CommentRepository interface {
	Create(ctx context.Context, c *comment.Comment) (*comment.Comment, error)
	// FindByIDs keeps the order of ids and skips stale ones.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*comment.Comment, error)
	// FindByPostID returns comments in creation order.
	FindByPostID(ctx context.Context, postID uuid.UUID) ([]*comment.Comment, error)
	DeleteByPostID(ctx context.Context, postID uuid.UUID) (int64, error)
}

type CommentDTO struct {
	ID        string               `json:"id"`
	PostID    string               `json:"postId"`
	AuthorID  string               `json:"authorId"`
	Author    *userPort.SummaryDTO `json:"author"`
	Text      string               `json:"text"`
	CreatedAt time.Time            `json:"createdAt"`
}

func ToCommentDTO(c *comment.Comment) *CommentDTO {
	return &CommentDTO{
		ID:        c.ID.String(),
		PostID:    c.PostID.String(),
		AuthorID:  c.AuthorID.String(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}
