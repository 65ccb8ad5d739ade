package mongo

import (
	"context"
	"errors"
	"time"

	"edupulse/lms-backend/internal/domain"
	"edupulse/lms-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "sessions"

// mongoSessionRepository implements repository.SessionRepository
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new Session repository backed by MongoDB.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// GetByBatchAndNumber retrieves one session document.
func (r *mongoSessionRepository) GetByBatchAndNumber(ctx context.Context, batchID, sessionNo string) (*domain.Session, error) {
	var session domain.Session
	filter := bson.M{"batchId": batchID, "sessionNo": sessionNo}

	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// AppendRecordings upserts the session document and pushes the recording
// references onto it. Upsert keeps the write idempotent with respect to
// session existence: the first upload for a session creates the document.
func (r *mongoSessionRepository) AppendRecordings(ctx context.Context, batchID, sessionNo string, recordings []domain.RecordingRef) error {
	if len(recordings) == 0 {
		return nil
	}

	now := time.Now().UTC()
	filter := bson.M{"batchId": batchID, "sessionNo": sessionNo}
	update := bson.M{
		"$push":        bson.M{"recordings": bson.M{"$each": recordings}},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{"batchId": batchID, "sessionNo": sessionNo, "createdAt": now},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

// EnsureSessionIndexes creates necessary indexes for the sessions collection.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "batchId", Value: 1}, {Key: "sessionNo", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
