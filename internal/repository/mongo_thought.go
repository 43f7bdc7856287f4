package repository

import (
	"context"
	"time"

	"thoughtwave/internal/database"
	"thoughtwave/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoThoughtRepository struct {
	coll *mongo.Collection
}

// NewMongoThoughtRepository returns a ThoughtRepository backed by the thoughts collection.
func NewMongoThoughtRepository(db *mongo.Database) ThoughtRepository {
	return &mongoThoughtRepository{coll: db.Collection(database.ThoughtsCollection)}
}

func (r *mongoThoughtRepository) Create(ctx context.Context, thought *models.Thought) error {
	thought.PrepareForInsert(time.Now().UTC())
	if _, err := r.coll.InsertOne(ctx, thought); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoThoughtRepository) GetByID(ctx context.Context, id string) (*models.Thought, error) {
	var thought models.Thought
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&thought); err != nil {
		return nil, mapMongoLookupError(err, "Thought")
	}
	return &thought, nil
}

func (r *mongoThoughtRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Thought, error) {
	if len(ids) == 0 {
		return []models.Thought{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var thoughts []models.Thought
	if err := cur.All(ctx, &thoughts); err != nil {
		return nil, models.NewInternalError(err)
	}
	return orderByIDs(ids, thoughts, thoughtID), nil
}

func (r *mongoThoughtRepository) List(ctx context.Context) ([]models.Thought, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	thoughts := []models.Thought{}
	if err := cur.All(ctx, &thoughts); err != nil {
		return nil, models.NewInternalError(err)
	}
	return thoughts, nil
}

func (r *mongoThoughtRepository) Update(ctx context.Context, id string, patch models.ThoughtPatch) (*models.Thought, error) {
	var scratch models.Thought
	patch.Apply(&scratch)

	set := bson.M{}
	if patch.ThoughtText != nil {
		set["thoughtText"] = scratch.ThoughtText
	}
	if patch.Username != nil {
		set["username"] = scratch.Username
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	var thought models.Thought
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&thought)
	if err != nil {
		return nil, mapMongoLookupError(err, "Thought")
	}
	return &thought, nil
}

func (r *mongoThoughtRepository) Save(ctx context.Context, thought *models.Thought) error {
	if thought.Reactions == nil {
		thought.Reactions = []models.Reaction{}
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": thought.ID}, thought)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Thought")
	}
	return nil
}

func (r *mongoThoughtRepository) Delete(ctx context.Context, id string) (*models.Thought, error) {
	var thought models.Thought
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&thought); err != nil {
		return nil, mapMongoLookupError(err, "Thought")
	}
	return &thought, nil
}

func (r *mongoThoughtRepository) DeleteByUserID(ctx context.Context, userID string) ([]string, error) {
	filter := bson.M{"userId": userID}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, models.NewInternalError(err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	if len(ids) == 0 {
		return ids, nil
	}

	if _, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *mongoThoughtRepository) PushReaction(ctx context.Context, thoughtID string, reaction models.Reaction) (*models.Thought, error) {
	return r.findAndUpdate(ctx, thoughtID, bson.M{"$push": bson.M{"reactions": reaction}})
}

func (r *mongoThoughtRepository) PullReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error) {
	return r.findAndUpdate(ctx, thoughtID, bson.M{"$pull": bson.M{"reactions": bson.M{"reactionId": reactionID}}})
}

func (r *mongoThoughtRepository) findAndUpdate(ctx context.Context, id string, update bson.M) (*models.Thought, error) {
	var thought models.Thought
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&thought); err != nil {
		return nil, mapMongoLookupError(err, "Thought")
	}
	return &thought, nil
}
