package memory

import (
	"context"
	"testing"
	"time"

	"gramly/internal/core/comment"
	"gramly/internal/core/desync"
	"gramly/internal/core/post"
	"gramly/internal/core/user"
	"gramly/internal/ports"
	postPort "gramly/internal/ports/post"
	userPort "gramly/internal/ports/user"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string, createdAt time.Time) *user.User {
	return &user.User{
		ID:        uuid.Must(uuid.NewV4()),
		FullName:  "Test User",
		Email:     email,
		Password:  "hash",
		CreatedAt: createdAt,
	}
}

func TestUserRepository_CreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	_, err := repo.Create(ctx, newUser("a@example.com", time.Now()))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newUser("A@example.com", time.Now()))
	assert.ErrorIs(t, err, ports.ErrDuplicate)
}

func TestUserRepository_SetsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	u, err := repo.Create(ctx, newUser("a@example.com", time.Now()))
	require.NoError(t, err)

	member := uuid.Must(uuid.NewV4())
	require.NoError(t, repo.AddToSet(ctx, u.ID, user.SetFollowing, member))
	require.NoError(t, repo.AddToSet(ctx, u.ID, user.SetFollowing, member))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{member}, got.Following)

	require.NoError(t, repo.RemoveFromSet(ctx, u.ID, user.SetFollowing, member))
	require.NoError(t, repo.RemoveFromSet(ctx, u.ID, user.SetFollowing, member))

	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Following)
}

func TestUserRepository_SetWriteOnMissingOwner(t *testing.T) {
	repo := NewUserRepository()
	err := repo.AddToSet(context.Background(), uuid.Must(uuid.NewV4()), user.SetPosts, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	u, err := repo.Create(ctx, newUser("a@example.com", time.Now()))
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	got.Posts = append(got.Posts, uuid.Must(uuid.NewV4()))
	got.FullName = "changed"

	again, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Posts)
	assert.Equal(t, "Test User", again.FullName)
}

func TestUserRepository_FindAllExceptAndProfileUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	me, _ := repo.Create(ctx, newUser("me@example.com", base))
	older, _ := repo.Create(ctx, newUser("old@example.com", base.Add(time.Minute)))
	newer, _ := repo.Create(ctx, newUser("new@example.com", base.Add(time.Hour)))

	others, err := repo.FindAllExcept(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, others, 2)
	assert.Equal(t, older.ID, others[0].ID)
	assert.Equal(t, newer.ID, others[1].ID)

	bio := "hello"
	updated, err := repo.UpdateProfile(ctx, me.ID, userPort.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)
	assert.Empty(t, updated.Gender)
}

func TestPostRepository_FindNewestFirstAndDeleteOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository()
	author := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first, _ := repo.Create(ctx, &post.Post{ID: uuid.Must(uuid.NewV4()), AuthorID: author, Image: "a", CreatedAt: base})
	second, _ := repo.Create(ctx, &post.Post{ID: uuid.Must(uuid.NewV4()), AuthorID: author, Image: "b", CreatedAt: base.Add(time.Second)})
	_, _ = repo.Create(ctx, &post.Post{ID: uuid.Must(uuid.NewV4()), AuthorID: other, Image: "c", CreatedAt: base.Add(time.Minute)})

	all, err := repo.Find(ctx, postPort.PostFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := repo.Find(ctx, postPort.PostFilter{AuthorID: &author})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), ports.ErrNotFound)
	assert.ErrorIs(t, repo.AddToSet(ctx, first.ID, post.SetLikes, author), ports.ErrNotFound)
}

func TestCommentRepository_OrderingAndPurge(t *testing.T) {
	ctx := context.Background()
	repo := NewCommentRepository()
	postID := uuid.Must(uuid.NewV4())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	c1, _ := repo.Create(ctx, &comment.Comment{ID: uuid.Must(uuid.NewV4()), PostID: postID, Text: "one", CreatedAt: base})
	c2, _ := repo.Create(ctx, &comment.Comment{ID: uuid.Must(uuid.NewV4()), PostID: postID, Text: "two", CreatedAt: base.Add(time.Second)})
	_, _ = repo.Create(ctx, &comment.Comment{ID: uuid.Must(uuid.NewV4()), PostID: uuid.Must(uuid.NewV4()), Text: "elsewhere", CreatedAt: base})

	byPost, err := repo.FindByPostID(ctx, postID)
	require.NoError(t, err)
	require.Len(t, byPost, 2)
	assert.Equal(t, c1.ID, byPost[0].ID)

	stale := uuid.Must(uuid.NewV4())
	byIDs, err := repo.FindByIDs(ctx, []uuid.UUID{c2.ID, stale, c1.ID})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, c2.ID, byIDs[0].ID)
	assert.Equal(t, c1.ID, byIDs[1].ID)

	n, err := repo.DeleteByPostID(ctx, postID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.DeleteByPostID(ctx, postID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestJournal_Lifecycle(t *testing.T) {
	ctx := context.Background()
	j := NewJournal()

	e := &desync.Entry{Operation: "create_post", Target: desync.TargetUser, Action: desync.ActionAdd}
	require.NoError(t, j.Record(ctx, e))
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, desync.StatusPending, e.Status)

	pending, err := j.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, j.MarkAttempt(ctx, e.ID, "boom", false))
	pending, _ = j.Pending(ctx, 10)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "boom", pending[0].LastError)

	require.NoError(t, j.MarkDone(ctx, e.ID))
	pending, _ = j.Pending(ctx, 10)
	assert.Empty(t, pending)
	assert.ErrorIs(t, j.MarkDone(ctx, uuid.Must(uuid.NewV4())), ports.ErrNotFound)
}
