package post

import (
	"time"

	"github.com/gofrs/uuid"
)

// Set names one of the relationship sets a post owns.
type Set string

const (
	SetLikes    Set = "likes"
	SetComments Set = "comments"
)

var Sets = []Set{SetLikes, SetComments}

func (s Set) Valid() bool {
	return s == SetLikes || s == SetComments
}

// Post is owned by the content store. AuthorID is a weak reference to a user.
type Post struct {
	ID        uuid.UUID `gorm:"primary_key;type:char(36)"`
	AuthorID  uuid.UUID `gorm:"type:char(36);not null;index"`
	Caption   string    `gorm:"type:text"`
	Image     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`

	Likes    []uuid.UUID `gorm:"-"`
	Comments []uuid.UUID `gorm:"-"`
}

func (p *Post) Members(s Set) []uuid.UUID {
	switch s {
	case SetLikes:
		return p.Likes
	case SetComments:
		return p.Comments
	}
	return nil
}

func (p *Post) SetMembers(s Set, ids []uuid.UUID) {
	switch s {
	case SetLikes:
		p.Likes = ids
	case SetComments:
		p.Comments = ids
	}
}

func (p *Post) Clone() *Post {
	c := *p
	c.Likes = append([]uuid.UUID{}, p.Likes...)
	c.Comments = append([]uuid.UUID{}, p.Comments...)
	return &c
}
