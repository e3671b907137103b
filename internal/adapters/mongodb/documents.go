// Package mongodb stores users, posts, comments and desync entries in MongoDB.
// Relationship sets are embedded arrays changed with $addToSet and $pull.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"gramly/internal/core/comment"
	"gramly/internal/core/desync"
	"gramly/internal/core/post"
	"gramly/internal/core/user"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	postsCollection    = "posts"
	commentsCollection = "comments"
	journalCollection  = "desync_entries"
)

type userDocument struct {
	ID             string    `bson:"_id"`
	FullName       string    `bson:"fullName"`
	Email          string    `bson:"email"`
	Password       string    `bson:"password"`
	Bio            string    `bson:"bio"`
	Gender         string    `bson:"gender"`
	ProfilePicture string    `bson:"profilePicture"`
	Posts          []string  `bson:"posts"`
	Following      []string  `bson:"following"`
	Followers      []string  `bson:"followers"`
	Bookmarks      []string  `bson:"bookmarks"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

type postDocument struct {
	ID        string    `bson:"_id"`
	AuthorID  string    `bson:"author"`
	Caption   string    `bson:"caption"`
	Image     string    `bson:"image"`
	Likes     []string  `bson:"likes"`
	Comments  []string  `bson:"comments"`
	CreatedAt time.Time `bson:"createdAt"`
}

type commentDocument struct {
	ID        string    `bson:"_id"`
	PostID    string    `bson:"post"`
	AuthorID  string    `bson:"author"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
}

type entryDocument struct {
	ID          string     `bson:"_id"`
	Operation   string     `bson:"operation"`
	Target      string     `bson:"target"`
	Set         string     `bson:"set,omitempty"`
	OwnerID     string     `bson:"ownerId"`
	MemberID    string     `bson:"memberId,omitempty"`
	Action      string     `bson:"action"`
	Status      string     `bson:"status"`
	Attempts    int        `bson:"attempts"`
	LastError   string     `bson:"lastError,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
	ProcessedAt *time.Time `bson:"processedAt,omitempty"`
}

// EnsureIndexes creates the indexes the repositories rely on. It is safe to run repeatedly.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		postsCollection: {
			{Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "post", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		journalCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// parseIDs drops anything that is not a uuid; documents are only ever written by this package.
func parseIDs(raw []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.FromString(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func toUserDocument(u *user.User) *userDocument {
	return &userDocument{
		ID:             u.ID.String(),
		FullName:       u.FullName,
		Email:          u.Email,
		Password:       u.Password,
		Bio:            u.Bio,
		Gender:         u.Gender,
		ProfilePicture: u.ProfilePicture,
		Posts:          idStrings(u.Posts),
		Following:      idStrings(u.Following),
		Followers:      idStrings(u.Followers),
		Bookmarks:      idStrings(u.Bookmarks),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (d *userDocument) toEntity() *user.User {
	return &user.User{
		ID:             uuid.FromStringOrNil(d.ID),
		FullName:       d.FullName,
		Email:          d.Email,
		Password:       d.Password,
		Bio:            d.Bio,
		Gender:         d.Gender,
		ProfilePicture: d.ProfilePicture,
		Posts:          parseIDs(d.Posts),
		Following:      parseIDs(d.Following),
		Followers:      parseIDs(d.Followers),
		Bookmarks:      parseIDs(d.Bookmarks),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func toPostDocument(p *post.Post) *postDocument {
	return &postDocument{
		ID:        p.ID.String(),
		AuthorID:  p.AuthorID.String(),
		Caption:   p.Caption,
		Image:     p.Image,
		Likes:     idStrings(p.Likes),
		Comments:  idStrings(p.Comments),
		CreatedAt: p.CreatedAt,
	}
}

func (d *postDocument) toEntity() *post.Post {
	return &post.Post{
		ID:        uuid.FromStringOrNil(d.ID),
		AuthorID:  uuid.FromStringOrNil(d.AuthorID),
		Caption:   d.Caption,
		Image:     d.Image,
		Likes:     parseIDs(d.Likes),
		Comments:  parseIDs(d.Comments),
		CreatedAt: d.CreatedAt,
	}
}

func toCommentDocument(c *comment.Comment) *commentDocument {
	return &commentDocument{
		ID:        c.ID.String(),
		PostID:    c.PostID.String(),
		AuthorID:  c.AuthorID.String(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func (d *commentDocument) toEntity() *comment.Comment {
	return &comment.Comment{
		ID:        uuid.FromStringOrNil(d.ID),
		PostID:    uuid.FromStringOrNil(d.PostID),
		AuthorID:  uuid.FromStringOrNil(d.AuthorID),
		Text:      d.Text,
		CreatedAt: d.CreatedAt,
	}
}

func toEntryDocument(e *desync.Entry) *entryDocument {
	d := &entryDocument{
		ID:          e.ID.String(),
		Operation:   e.Operation,
		Target:      string(e.Target),
		Set:         e.Set,
		OwnerID:     e.OwnerID.String(),
		Action:      string(e.Action),
		Status:      e.Status,
		Attempts:    e.Attempts,
		LastError:   e.LastError,
		CreatedAt:   e.CreatedAt,
		ProcessedAt: e.ProcessedAt,
	}
	if e.MemberID != uuid.Nil {
		d.MemberID = e.MemberID.String()
	}
	return d
}

func (d *entryDocument) toEntity() *desync.Entry {
	return &desync.Entry{
		ID:          uuid.FromStringOrNil(d.ID),
		Operation:   d.Operation,
		Target:      desync.Target(d.Target),
		Set:         d.Set,
		OwnerID:     uuid.FromStringOrNil(d.OwnerID),
		MemberID:    uuid.FromStringOrNil(d.MemberID),
		Action:      desync.Action(d.Action),
		Status:      d.Status,
		Attempts:    d.Attempts,
		LastError:   d.LastError,
		CreatedAt:   d.CreatedAt,
		ProcessedAt: d.ProcessedAt,
	}
}
