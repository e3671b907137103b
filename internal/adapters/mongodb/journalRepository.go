package mongodb

import (
	"context"
	"fmt"
	"time"

	"gramly/internal/core/desync"
	"gramly/internal/ports"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type JournalRepositoryMongo struct {
	entries *mongo.Collection
}

func NewJournalRepositoryMongo(db *mongo.Database) *JournalRepositoryMongo {
	return &JournalRepositoryMongo{entries: db.Collection(journalCollection)}
}

func (repo *JournalRepositoryMongo) Record(ctx context.Context, e *desync.Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.Must(uuid.NewV4())
	}
	if e.Status == "" {
		e.Status = desync.StatusPending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := repo.entries.InsertOne(ctx, toEntryDocument(e)); err != nil {
		return fmt.Errorf("record desync entry: %w", err)
	}
	return nil
}

func (repo *JournalRepositoryMongo) Pending(ctx context.Context, limit int) ([]*desync.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := repo.entries.Find(ctx, bson.M{"status": desync.StatusPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("find pending desync entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode desync entries: %w", err)
	}
	out := make([]*desync.Entry, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}

func (repo *JournalRepositoryMongo) MarkDone(ctx context.Context, id uuid.UUID) error {
	return repo.update(ctx, id, bson.M{
		"$set": bson.M{"status": desync.StatusDone, "processedAt": time.Now().UTC()},
	})
}

func (repo *JournalRepositoryMongo) MarkAttempt(ctx context.Context, id uuid.UUID, lastErr string, failed bool) error {
	set := bson.M{"lastError": lastErr}
	if failed {
		set["status"] = desync.StatusFailed
		set["processedAt"] = time.Now().UTC()
	}
	return repo.update(ctx, id, bson.M{"$set": set, "$inc": bson.M{"attempts": 1}})
}

func (repo *JournalRepositoryMongo) update(ctx context.Context, id uuid.UUID, update bson.M) error {
	res, err := repo.entries.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return fmt.Errorf("update desync entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}
