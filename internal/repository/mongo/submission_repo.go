package mongo

import (
	"context"
	"errors"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const submissionCollectionName = "submissions"

// mongoSubmissionRepository implements repository.SubmissionRepository
type mongoSubmissionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubmissionRepository creates a new Submission repository backed by MongoDB.
func NewMongoSubmissionRepository(db *mongo.Database) repository.SubmissionRepository {
	return &mongoSubmissionRepository{
		collection: db.Collection(submissionCollectionName),
	}
}

// Create inserts a new submission. The caller assigns the id.
func (r *mongoSubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	if sub.ID == "" || sub.TraineeID == "" {
		return errors.New("submission requires id and traineeId")
	}
	sub.Version = 1

	_, err := r.collection.InsertOne(ctx, sub)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// GetByID retrieves a submission by its ID.
func (r *mongoSubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	var sub domain.Submission
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// List retrieves submissions matching the filter, newest first.
func (r *mongoSubmissionRepository) List(ctx context.Context, f repository.SubmissionFilter) ([]domain.Submission, error) {
	filter := bson.M{}
	if f.TraineeIDs != nil {
		filter["traineeId"] = bson.M{"$in": f.TraineeIDs}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []domain.Submission{}
	if err = cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Update writes the mutable fields if the stored version still matches sub.Version.
func (r *mongoSubmissionRepository) Update(ctx context.Context, sub *domain.Submission) error {
	filter := bson.M{"_id": sub.ID, "version": sub.Version}
	if sub.Version == 0 {
		// Records written before versioning have no field at all.
		filter = bson.M{
			"_id": sub.ID,
			"$or": bson.A{
				bson.M{"version": 0},
				bson.M{"version": bson.M{"$exists": false}},
			},
		}
	}

	set := bson.M{
		"planId":        sub.PlanID,
		"exerciseIds":   sub.ExerciseIDs,
		"videoIds":      sub.VideoIDs,
		"timestamp":     sub.Timestamp,
		"status":        sub.Status,
		"videosDeleted": sub.VideosDeleted,
	}
	unset := bson.M{}
	if sub.Feedback != "" {
		set["feedback"] = sub.Feedback
	} else {
		unset["feedback"] = ""
	}
	if sub.TraineeNote != "" {
		set["traineeNote"] = sub.TraineeNote
	} else {
		unset["traineeNote"] = ""
	}
	if sub.PointsAwarded != nil {
		set["pointsAwarded"] = *sub.PointsAwarded
	} else {
		unset["pointsAwarded"] = ""
	}

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either gone or someone else wrote first.
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": sub.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	sub.Version++
	return nil
}

// DeleteByTraineeID removes every submission owned by the trainee.
func (r *mongoSubmissionRepository) DeleteByTraineeID(ctx context.Context, traineeID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"traineeId": traineeID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// Subscribe follows the collection's change stream. Requires a replica set.
func (r *mongoSubmissionRepository) Subscribe(ctx context.Context, onChange func()) error {
	stream, err := r.collection.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return err
	}
	defer stream.Close(context.Background())

	log.Info().Str("collection", submissionCollectionName).Msg("Watching change stream")
	for stream.Next(ctx) {
		onChange()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return stream.Err()
}

// EnsureSubmissionIndexes creates necessary indexes for the submissions collection.
func EnsureSubmissionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Dashboard query: a trainee's submissions, newest first
			Keys:    bson.D{{Key: "traineeId", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn().Err(err).Str("collection", collection.Name()).Msg("Failed to create indexes")
	}
}
