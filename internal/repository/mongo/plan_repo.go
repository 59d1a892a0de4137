package mongo

import (
	"context"
	"errors"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planCollectionName = "plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new WorkoutPlan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// GetByTraineeID retrieves the trainee's plan.
func (r *mongoPlanRepository) GetByTraineeID(ctx context.Context, traineeID string) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	err := r.collection.FindOne(ctx, bson.M{"traineeId": traineeID}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Save overwrites the trainee's plan or creates it. plan.ID is updated to the stored id.
func (r *mongoPlanRepository) Save(ctx context.Context, plan *domain.WorkoutPlan) error {
	if plan.TraineeID == "" || plan.CoachID == "" {
		return errors.New("plan requires traineeId and coachId")
	}
	newID := plan.ID
	if newID == "" {
		newID = uuid.NewString()
	}

	filter := bson.M{"traineeId": plan.TraineeID}
	update := bson.M{
		"$set": bson.M{
			"coachId":     plan.CoachID,
			"exerciseIds": plan.ExerciseIDs,
			"lastUpdated": plan.LastUpdated,
		},
		"$setOnInsert": bson.M{"_id": newID},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved domain.WorkoutPlan
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return err
	}
	*plan = saved
	return nil
}

func (r *mongoPlanRepository) DeleteByTraineeID(ctx context.Context, traineeID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"traineeId": traineeID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One plan per trainee
			Keys:    bson.D{{Key: "traineeId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn().Err(err).Str("collection", collection.Name()).Msg("Failed to create indexes")
	}
}
