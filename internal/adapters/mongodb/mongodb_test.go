package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"gramly/internal/core/desync"
	"gramly/internal/core/post"
	"gramly/internal/core/user"
	"gramly/internal/ports"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestParseIDsSkipsGarbage(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	assert.Equal(t, []uuid.UUID{id}, parseIDs([]string{"nope", id.String(), ""}))
	assert.NotNil(t, parseIDs(nil))
}

func TestEntryDocumentOmitsNilMember(t *testing.T) {
	doc := toEntryDocument(&desync.Entry{
		ID:      uuid.Must(uuid.NewV4()),
		Target:  desync.TargetComments,
		OwnerID: uuid.Must(uuid.NewV4()),
		Action:  desync.ActionPurge,
	})
	assert.Empty(t, doc.MemberID)
	assert.Equal(t, uuid.Nil, doc.toEntity().MemberID)
}

// openTestDB connects to the MongoDB server named by TEST_MONGO_URI, using a throwaway database.
func openTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" || testing.Short() {
		t.Skip("TEST_MONGO_URI not set, skipping MongoDB integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("gramly_test_" + uuid.Must(uuid.NewV4()).String()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	require.NoError(t, EnsureIndexes(ctx, db))
	return db
}

func TestUserRepositoryMongo(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewUserRepositoryMongo(db)

	alice, err := repo.Create(ctx, &user.User{ID: uuid.Must(uuid.NewV4()), FullName: "Alice", Email: "alice@example.com", Password: "x"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &user.User{ID: uuid.Must(uuid.NewV4()), FullName: "Other", Email: "alice@example.com", Password: "x"})
	assert.ErrorIs(t, err, ports.ErrDuplicate)

	bob := uuid.Must(uuid.NewV4())
	require.NoError(t, repo.AddToSet(ctx, alice.ID, user.SetFollowers, bob))
	require.NoError(t, repo.AddToSet(ctx, alice.ID, user.SetFollowers, bob))

	got, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob}, got.Followers)

	require.NoError(t, repo.RemoveFromSet(ctx, alice.ID, user.SetFollowers, bob))
	got, err = repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, got.Followers)

	assert.ErrorIs(t, repo.AddToSet(ctx, uuid.Must(uuid.NewV4()), user.SetPosts, bob), ports.ErrNotFound)
}

func TestPostRepositoryMongo_DeleteOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewPostRepositoryMongo(db)

	p, err := repo.Create(ctx, &post.Post{ID: uuid.Must(uuid.NewV4()), AuthorID: uuid.Must(uuid.NewV4()), Image: "/media/x.png", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	require.NoError(t, repo.AddToSet(ctx, p.ID, post.SetLikes, p.AuthorID))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.AuthorID}, got.Likes)

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), ports.ErrNotFound)
}
