package user

import (
	"time"

	"github.com/gofrs/uuid"
)

// Set names one of the relationship sets a user owns.
type Set string

const (
	SetPosts     Set = "posts"
	SetFollowing Set = "following"
	SetFollowers Set = "followers"
	SetBookmarks Set = "bookmarks"
)

// Sets lists every relationship set of a user.
var Sets = []Set{SetPosts, SetFollowing, SetFollowers, SetBookmarks}

func (s Set) Valid() bool {
	switch s {
	case SetPosts, SetFollowing, SetFollowers, SetBookmarks:
		return true
	}
	return false
}

// User is owned by the identity store. The relationship sets are weak references by id
// and are persisted by the adapters, not as columns of this table.
type User struct {
	ID             uuid.UUID `gorm:"primary_key;type:char(36)"`
	FullName       string    `gorm:"not null"`
	Email          string    `gorm:"type:varchar(191);uniqueIndex;not null"`
	Password       string    `gorm:"not null"`
	Bio            string    `gorm:"type:text"`
	Gender         string    `gorm:"type:varchar(16)"`
	ProfilePicture string
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`

	Posts     []uuid.UUID `gorm:"-"`
	Following []uuid.UUID `gorm:"-"`
	Followers []uuid.UUID `gorm:"-"`
	Bookmarks []uuid.UUID `gorm:"-"`
}

// Members returns the ids stored in the given set.
func (u *User) Members(s Set) []uuid.UUID {
	switch s {
	case SetPosts:
		return u.Posts
	case SetFollowing:
		return u.Following
	case SetFollowers:
		return u.Followers
	case SetBookmarks:
		return u.Bookmarks
	}
	return nil
}

// SetMembers replaces the ids stored in the given set.
func (u *User) SetMembers(s Set, ids []uuid.UUID) {
	switch s {
	case SetPosts:
		u.Posts = ids
	case SetFollowing:
		u.Following = ids
	case SetFollowers:
		u.Followers = ids
	case SetBookmarks:
		u.Bookmarks = ids
	}
}

// Clone returns a deep copy so callers never share set slices with a store.
func (u *User) Clone() *User {
	c := *u
	for _, s := range Sets {
		c.SetMembers(s, append([]uuid.UUID{}, u.Members(s)...))
	}
	return &c
}

// ValidGender reports whether g is an accepted profile gender. Empty means unset.
func ValidGender(g string) bool {
	return g == "" || g == "male" || g == "female"
}
