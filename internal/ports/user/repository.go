package user

import (
	"context"
	"time"

	"gramly/internal/core/user"

	"github.com/gofrs/uuid"
)

// UserRepository is the identity store.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) (*user.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	// FindByIDs skips ids that do not exist.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	// FindAllExcept returns every user but id, oldest registration first.
	FindAllExcept(ctx context.Context, id uuid.UUID) ([]*user.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*user.User, error)

	// AddToSet and RemoveFromSet are idempotent and return ports.ErrNotFound when the owner is missing.
	AddToSet(ctx context.Context, id uuid.UUID, set user.Set, member uuid.UUID) error
	RemoveFromSet(ctx context.Context, id uuid.UUID, set user.Set, member uuid.UUID) error
}

// ProfileUpdate carries only the fields to change; nil means untouched.
type ProfileUpdate struct {
	Bio            *string
	Gender         *string
	ProfilePicture *string
}

func (u ProfileUpdate) Empty() bool {
	return u.Bio == nil && u.Gender == nil && u.ProfilePicture == nil
}

// SummaryCache caches author summaries for feed assembly. Implementations swallow their own
// failures and report them as misses.
type SummaryCache interface {
	Get(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*SummaryDTO, []uuid.UUID)
	Set(ctx context.Context, summaries ...*SummaryDTO)
	Invalidate(ctx context.Context, id uuid.UUID)
}

// DTOs returned by the use cases
type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expiresAt"`
	User      *UserDTO `json:"user"`
}

// UserDTO is a user without its credential hash.
type UserDTO struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Bio            string    `json:"bio"`
	Gender         string    `json:"gender"`
	ProfilePicture string    `json:"profilePicture"`
	Posts          []string  `json:"posts"`
	Following      []string  `json:"following"`
	Followers      []string  `json:"followers"`
	Bookmarks      []string  `json:"bookmarks"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SummaryDTO is what the feed shows about an author.
type SummaryDTO struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	ProfilePicture string `json:"profilePicture"`
}

func ToUserDTO(u *user.User) *UserDTO {
	return &UserDTO{
		ID:             u.ID.String(),
		FullName:       u.FullName,
		Email:          u.Email,
		Bio:            u.Bio,
		Gender:         u.Gender,
		ProfilePicture: u.ProfilePicture,
		Posts:          IDStrings(u.Posts),
		Following:      IDStrings(u.Following),
		Followers:      IDStrings(u.Followers),
		Bookmarks:      IDStrings(u.Bookmarks),
		CreatedAt:      u.CreatedAt,
	}
}

func ToSummaryDTO(u *user.User) *SummaryDTO {
	return &SummaryDTO{
		ID:             u.ID.String(),
		FullName:       u.FullName,
		ProfilePicture: u.ProfilePicture,
	}
}

// IDStrings renders ids for JSON, never returning nil.
func IDStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
