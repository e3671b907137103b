package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gramly/internal/core/user"
	"gramly/internal/ports"
	userPort "gramly/internal/ports/user"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepositoryMongo struct {
	users *mongo.Collection
}

func NewUserRepositoryMongo(db *mongo.Database) *UserRepositoryMongo {
	return &UserRepositoryMongo{users: db.Collection(usersCollection)}
}

func (repo *UserRepositoryMongo) Create(ctx context.Context, u *user.User) (*user.User, error) {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	if _, err := repo.users.InsertOne(ctx, toUserDocument(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ports.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (repo *UserRepositoryMongo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return repo.findOne(ctx, bson.M{"_id": id.String()})
}

func (repo *UserRepositoryMongo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return repo.findOne(ctx, bson.M{"email": email})
}

func (repo *UserRepositoryMongo) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDocument
	if err := repo.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toEntity(), nil
}

func (repo *UserRepositoryMongo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	if len(ids) == 0 {
		return []*user.User{}, nil
	}

	found, err := repo.find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}}, nil)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*user.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]*user.User, 0, len(found))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (repo *UserRepositoryMongo) FindAllExcept(ctx context.Context, id uuid.UUID) ([]*user.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return repo.find(ctx, bson.M{"_id": bson.M{"$ne": id.String()}}, opts)
}

func (repo *UserRepositoryMongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*user.User, error) {
	cursor, err := repo.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*user.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}

func (repo *UserRepositoryMongo) UpdateProfile(ctx context.Context, id uuid.UUID, update userPort.ProfileUpdate) (*user.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.Gender != nil {
		set["gender"] = *update.Gender
	}
	if update.ProfilePicture != nil {
		set["profilePicture"] = *update.ProfilePicture
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	if err := repo.users.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return doc.toEntity(), nil
}

func (repo *UserRepositoryMongo) AddToSet(ctx context.Context, id uuid.UUID, set user.Set, member uuid.UUID) error {
	return updateSet(ctx, repo.users, id, "$addToSet", string(set), member)
}

func (repo *UserRepositoryMongo) RemoveFromSet(ctx context.Context, id uuid.UUID, set user.Set, member uuid.UUID) error {
	return updateSet(ctx, repo.users, id, "$pull", string(set), member)
}

// updateSet applies a single-field array operator. MatchedCount is zero only when the owner is missing.
func updateSet(ctx context.Context, coll *mongo.Collection, id uuid.UUID, operator, field string, member uuid.UUID) error {
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{operator: bson.M{field: member.String()}},
	)
	if err != nil {
		return fmt.Errorf("%s %s: %w", operator, field, err)
	}
	if res.MatchedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}
