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

const messageCollectionName = "messages"

// mongoMessageRepository implements repository.MessageRepository
type mongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &mongoMessageRepository{
		collection: db.Collection(messageCollectionName),
	}
}

func (r *mongoMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	if msg.SenderID == "" || msg.ReceiverID == "" {
		return errors.New("message requires senderId and receiverId")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

func participantFilter(userID string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"senderId": userID},
		bson.M{"receiverId": userID},
	}}
}

// ListForUser returns the user's conversation history, oldest first.
func (r *mongoMessageRepository) ListForUser(ctx context.Context, userID string) ([]domain.Message, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	cursor, err := r.collection.Find(ctx, participantFilter(userID), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	msgs := []domain.Message{}
	if err = cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead only touches messages addressed to userID.
func (r *mongoMessageRepository) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}, "receiverId": userID}
	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoMessageRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, participantFilter(userID))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureMessageIndexes creates necessary indexes. Call during startup.
func EnsureMessageIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "senderId", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "receiverId", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn().Err(err).Str("collection", collection.Name()).Msg("Failed to create indexes")
	}
}
