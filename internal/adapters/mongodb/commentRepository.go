package mongodb

import (
	"context"
	"fmt"

	"gramly/internal/core/comment"
	"gramly/internal/ports"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CommentRepositoryMongo struct {
	comments *mongo.Collection
}

func NewCommentRepositoryMongo(db *mongo.Database) *CommentRepositoryMongo {
	return &CommentRepositoryMongo{comments: db.Collection(commentsCollection)}
}

func (repo *CommentRepositoryMongo) Create(ctx context.Context, c *comment.Comment) (*comment.Comment, error) {
	if _, err := repo.comments.InsertOne(ctx, toCommentDocument(c)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ports.ErrDuplicate
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

func (repo *CommentRepositoryMongo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*comment.Comment, error) {
	if len(ids) == 0 {
		return []*comment.Comment{}, nil
	}

	found, err := repo.find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}}, nil)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*comment.Comment, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := make([]*comment.Comment, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (repo *CommentRepositoryMongo) FindByPostID(ctx context.Context, postID uuid.UUID) ([]*comment.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return repo.find(ctx, bson.M{"post": postID.String()}, opts)
}

func (repo *CommentRepositoryMongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*comment.Comment, error) {
	cursor, err := repo.comments.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []commentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	out := make([]*comment.Comment, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}

func (repo *CommentRepositoryMongo) DeleteByPostID(ctx context.Context, postID uuid.UUID) (int64, error) {
	res, err := repo.comments.DeleteMany(ctx, bson.M{"post": postID.String()})
	if err != nil {
		return 0, fmt.Errorf("delete comments: %w", err)
	}
	return res.DeletedCount, nil
}
