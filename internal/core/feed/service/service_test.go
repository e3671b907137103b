package feedapp

import (
	"context"
	"testing"
	"time"

	"gramly/internal/adapters/memory"
	"gramly/internal/core/apperror"
	commentEntity "gramly/internal/core/comment"
	postEntity "gramly/internal/core/post"
	userEntity "gramly/internal/core/user"
	userPort "gramly/internal/ports/user"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSummaryCache struct {
	mock.Mock
}

func (m *mockSummaryCache) Get(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*userPort.SummaryDTO, []uuid.UUID) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]*userPort.SummaryDTO), args.Get(1).([]uuid.UUID)
}

func (m *mockSummaryCache) Set(ctx context.Context, summaries ...*userPort.SummaryDTO) {
	m.Called(ctx, summaries)
}

func (m *mockSummaryCache) Invalidate(ctx context.Context, id uuid.UUID) {
	m.Called(ctx, id)
}

type stores struct {
	users    *memory.UserRepository
	posts    *memory.PostRepository
	comments *memory.CommentRepository
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newStores() *stores {
	return &stores{
		users:    memory.NewUserRepository(),
		posts:    memory.NewPostRepository(),
		comments: memory.NewCommentRepository(),
	}
}

func (s *stores) addUser(t *testing.T, name string) *userEntity.User {
	t.Helper()
	u, err := s.users.Create(context.Background(), &userEntity.User{
		ID:             uuid.Must(uuid.NewV4()),
		FullName:       name,
		Email:          name + "@example.com",
		Password:       "hash",
		ProfilePicture: "/media/" + name + ".png",
		CreatedAt:      base,
	})
	require.NoError(t, err)
	return u
}

func (s *stores) addPost(t *testing.T, author uuid.UUID, at time.Time) *postEntity.Post {
	t.Helper()
	p, err := s.posts.Create(context.Background(), &postEntity.Post{
		ID:        uuid.Must(uuid.NewV4()),
		AuthorID:  author,
		Image:     "/media/p.png",
		CreatedAt: at,
	})
	require.NoError(t, err)
	return p
}

func (s *stores) addComment(t *testing.T, postID, author uuid.UUID, text string, at time.Time) *commentEntity.Comment {
	t.Helper()
	ctx := context.Background()
	c, err := s.comments.Create(ctx, &commentEntity.Comment{
		ID:        uuid.Must(uuid.NewV4()),
		PostID:    postID,
		AuthorID:  author,
		Text:      text,
		CreatedAt: at,
	})
	require.NoError(t, err)
	require.NoError(t, s.posts.AddToSet(ctx, postID, postEntity.SetComments, c.ID))
	return c
}

func TestListAll_OrdersAndResolves(t *testing.T) {
	// Arrange
	st := newStores()
	alice := st.addUser(t, "alice")
	bob := st.addUser(t, "bob")
	older := st.addPost(t, alice.ID, base)
	newer := st.addPost(t, bob.ID, base.Add(time.Hour))
	first := st.addComment(t, older.ID, bob.ID, "first", base.Add(time.Minute))
	second := st.addComment(t, older.ID, alice.ID, "second", base.Add(2*time.Minute))
	svc := NewFeedService(st.posts, st.comments, st.users, nil, zap.NewNop())

	// Act
	feed, err := svc.ListAll(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, newer.ID.String(), feed[0].ID)
	assert.Equal(t, "bob", feed[0].Author.FullName)
	assert.Empty(t, feed[0].Comments)

	assert.Equal(t, older.ID.String(), feed[1].ID)
	assert.Equal(t, "alice", feed[1].Author.FullName)
	require.Len(t, feed[1].Comments, 2)
	assert.Equal(t, second.ID.String(), feed[1].Comments[0].ID)
	assert.Equal(t, "alice", feed[1].Comments[0].Author.FullName)
	assert.Equal(t, first.ID.String(), feed[1].Comments[1].ID)
	assert.Equal(t, "/media/bob.png", feed[1].Comments[1].Author.ProfilePicture)
}

func TestListAll_SkipsStaleReferences(t *testing.T) {
	ctx := context.Background()
	st := newStores()
	alice := st.addUser(t, "alice")
	p := st.addPost(t, alice.ID, base)
	st.addComment(t, p.ID, alice.ID, "kept", base)
	require.NoError(t, st.posts.AddToSet(ctx, p.ID, postEntity.SetComments, uuid.Must(uuid.NewV4())))
	orphan := st.addPost(t, uuid.Must(uuid.NewV4()), base.Add(time.Second))
	svc := NewFeedService(st.posts, st.comments, st.users, nil, nil)

	feed, err := svc.ListAll(ctx)

	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, orphan.ID.String(), feed[0].ID)
	assert.Nil(t, feed[0].Author)
	assert.Len(t, feed[1].Comments, 1)
	assert.Len(t, feed[1].CommentIDs, 2)
}

func TestListByAuthor(t *testing.T) {
	st := newStores()
	alice := st.addUser(t, "alice")
	bob := st.addUser(t, "bob")
	mine := st.addPost(t, alice.ID, base)
	st.addPost(t, bob.ID, base)
	svc := NewFeedService(st.posts, st.comments, st.users, nil, nil)

	feed, err := svc.ListByAuthor(context.Background(), alice.ID)

	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, mine.ID.String(), feed[0].ID)

	empty, err := svc.ListByAuthor(context.Background(), uuid.Must(uuid.NewV4()))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGetComments(t *testing.T) {
	ctx := context.Background()
	st := newStores()
	alice := st.addUser(t, "alice")
	p := st.addPost(t, alice.ID, base)
	first := st.addComment(t, p.ID, alice.ID, "first", base.Add(time.Minute))
	second := st.addComment(t, p.ID, alice.ID, "second", base.Add(2*time.Minute))
	svc := NewFeedService(st.posts, st.comments, st.users, nil, nil)

	t.Run("creation order", func(t *testing.T) {
		comments, err := svc.GetComments(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, first.ID.String(), comments[0].ID)
		assert.Equal(t, second.ID.String(), comments[1].ID)
		assert.Equal(t, "alice", comments[0].Author.FullName)
	})

	t.Run("unknown post", func(t *testing.T) {
		_, err := svc.GetComments(ctx, uuid.Must(uuid.NewV4()))
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
		assert.Equal(t, "post not found", apperror.Message(err))
	})

	t.Run("deleted post", func(t *testing.T) {
		gone := st.addPost(t, alice.ID, base)
		require.NoError(t, st.posts.Delete(ctx, gone.ID))
		_, err := svc.GetComments(ctx, gone.ID)
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})
}

func TestSummaries_ReadThroughCache(t *testing.T) {
	// Arrange
	ctx := context.Background()
	st := newStores()
	alice := st.addUser(t, "alice")
	bob := st.addUser(t, "bob")
	p := st.addPost(t, alice.ID, base)
	st.addComment(t, p.ID, bob.ID, "hi", base)

	cached := &userPort.SummaryDTO{ID: alice.ID.String(), FullName: "alice (cached)"}
	cache := new(mockSummaryCache)
	cache.On("Get", ctx, []uuid.UUID{alice.ID, bob.ID}).
		Return(map[uuid.UUID]*userPort.SummaryDTO{alice.ID: cached}, []uuid.UUID{bob.ID})
	cache.On("Set", ctx, mock.MatchedBy(func(s []*userPort.SummaryDTO) bool {
		return len(s) == 1 && s[0].ID == bob.ID.String()
	})).Return()
	svc := NewFeedService(st.posts, st.comments, st.users, cache, nil)

	// Act
	feed, err := svc.ListAll(ctx)

	// Assert
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "alice (cached)", feed[0].Author.FullName)
	assert.Equal(t, "bob", feed[0].Comments[0].Author.FullName)
	cache.AssertExpectations(t)
}

func TestPostAndCommentViews(t *testing.T) {
	ctx := context.Background()
	st := newStores()
	alice := st.addUser(t, "alice")
	bob := st.addUser(t, "bob")
	p := st.addPost(t, alice.ID, base)
	svc := NewFeedService(st.posts, st.comments, st.users, nil, nil)

	view, err := svc.PostView(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, view.Author)
	assert.Equal(t, "alice", view.Author.FullName)
	assert.Empty(t, view.Comments)

	c := st.addComment(t, p.ID, bob.ID, "nice", base.Add(time.Minute))
	stored, err := st.posts.FindByID(ctx, p.ID)
	require.NoError(t, err)

	view, err = svc.PostView(ctx, stored)
	require.NoError(t, err)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "bob", view.Comments[0].Author.FullName)

	cv, err := svc.CommentView(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "nice", cv.Text)
	require.NotNil(t, cv.Author)
	assert.Equal(t, "/media/bob.png", cv.Author.ProfilePicture)
}
