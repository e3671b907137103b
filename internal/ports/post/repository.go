package post

import (
	"context"
	"time"

	"gramly/internal/core/post"
	commentPort "gramly/internal/ports/comment"
	userPort "gramly/internal/ports/user"

	"github.com/gofrs/uuid"
)

// PostRepository is the post half of the content store.
type PostRepository interface {
	Create(ctx context.Context, p *post.Post) (*post.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error)
	// Find returns matching posts newest first.
	Find(ctx context.Context, filter PostFilter) ([]*post.Post, error)
	// Delete removes the post together with its own sets. It returns ports.ErrNotFound when
	// nothing was deleted, so only one of several concurrent deletes succeeds.
	Delete(ctx context.Context, id uuid.UUID) error

	AddToSet(ctx context.Context, id uuid.UUID, set post.Set, member uuid.UUID) error
	RemoveFromSet(ctx context.Context, id uuid.UUID, set post.Set, member uuid.UUID) error
}

type PostFilter struct {
	AuthorID *uuid.UUID
}

// DTOs returned by the use cases
type PostDTO struct {
	ID         string                    `json:"id"`
	Caption    string                    `json:"caption"`
	Image      string                    `json:"image"`
	AuthorID   string                    `json:"authorId"`
	Author     *userPort.SummaryDTO      `json:"author"`
	Likes      []string                  `json:"likes"`
	CommentIDs []string                  `json:"commentIds"`
	Comments   []*commentPort.CommentDTO `json:"comments,omitempty"`
	CreatedAt  time.Time                 `json:"createdAt"`
}

func ToPostDTO(p *post.Post) *PostDTO {
	return &PostDTO{
		ID:         p.ID.String(),
		Caption:    p.Caption,
		Image:      p.Image,
		AuthorID:   p.AuthorID.String(),
		Likes:      userPort.IDStrings(p.Likes),
		CommentIDs: userPort.IDStrings(p.Comments),
		CreatedAt:  p.CreatedAt,
	}
}
