package mongodb

import (
	"context"
	"errors"
	"fmt"

	"gramly/internal/core/post"
	"gramly/internal/ports"
	postPort "gramly/internal/ports/post"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostRepositoryMongo struct {
	posts *mongo.Collection
}

func NewPostRepositoryMongo(db *mongo.Database) *PostRepositoryMongo {
	return &PostRepositoryMongo{posts: db.Collection(postsCollection)}
}

func (repo *PostRepositoryMongo) Create(ctx context.Context, p *post.Post) (*post.Post, error) {
	if _, err := repo.posts.InsertOne(ctx, toPostDocument(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ports.ErrDuplicate
		}
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

func (repo *PostRepositoryMongo) FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	var doc postDocument
	if err := repo.posts.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return doc.toEntity(), nil
}

func (repo *PostRepositoryMongo) Find(ctx context.Context, filter postPort.PostFilter) ([]*post.Post, error) {
	query := bson.M{}
	if filter.AuthorID != nil {
		query["author"] = filter.AuthorID.String()
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := repo.posts.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	out := make([]*post.Post, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}

func (repo *PostRepositoryMongo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := repo.posts.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (repo *PostRepositoryMongo) AddToSet(ctx context.Context, id uuid.UUID, set post.Set, member uuid.UUID) error {
	return updateSet(ctx, repo.posts, id, "$addToSet", string(set), member)
}

func (repo *PostRepositoryMongo) RemoveFromSet(ctx context.Context, id uuid.UUID, set post.Set, member uuid.UUID) error {
	return updateSet(ctx, repo.posts, id, "$pull", string(set), member)
}
