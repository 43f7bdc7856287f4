package repository

import (
	"context"
	"errors"
	"time"

	"thoughtwave/internal/database"
	"thoughtwave/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository returns a UserRepository backed by the users collection.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection(database.UsersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) error {
	user.PrepareForInsert(time.Now().UTC())
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return mapMongoUserWriteError(err)
	}
	return nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, mapMongoLookupError(err, "User")
	}
	return &user, nil
}

func (r *mongoUserRepository) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	return orderByIDs(ids, users, userID), nil
}

func (r *mongoUserRepository) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *mongoUserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}

	var user models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("User")
		}
		return nil, mapMongoUserWriteError(err)
	}
	return &user, nil
}

func (r *mongoUserRepository) Save(ctx context.Context, user *models.User) error {
	user.Normalize()
	user.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return mapMongoUserWriteError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("User")
	}
	return nil
}

func (r *mongoUserRepository) Delete(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, mapMongoLookupError(err, "User")
	}
	return &user, nil
}

func (r *mongoUserRepository) PushThought(ctx context.Context, userID, thoughtID string) error {
	return r.updateOne(ctx, userID, bson.M{
		"$push": bson.M{"thoughts": thoughtID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *mongoUserRepository) PullThought(ctx context.Context, userID, thoughtID string) error {
	return r.updateOne(ctx, userID, bson.M{
		"$pull": bson.M{"thoughts": thoughtID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *mongoUserRepository) PushFriend(ctx context.Context, userID, friendID string) error {
	return r.updateOne(ctx, userID, bson.M{
		"$push": bson.M{"friends": friendID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *mongoUserRepository) PullFriend(ctx context.Context, userID, friendID string) error {
	return r.updateOne(ctx, userID, bson.M{
		"$pull": bson.M{"friends": friendID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *mongoUserRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("User")
	}
	return nil
}

func mapMongoLookupError(err error, resource string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFoundError(resource)
	}
	return models.NewInternalError(err)
}

func mapMongoUserWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return models.NewValidationErrorWithCause(duplicateUserMessage, err)
	}
	return models.NewInternalError(err)
}
