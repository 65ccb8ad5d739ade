package mongo

import (
	"context"
	"errors"
	"time"

	"edupulse/lms-backend/internal/domain"
	"edupulse/lms-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const enrollmentCollectionName = "enrollments"

// mongoEnrollmentRepository implements repository.EnrollmentRepository
type mongoEnrollmentRepository struct {
	collection *mongo.Collection
}

// NewMongoEnrollmentRepository creates a new Enrollment repository backed by MongoDB.
func NewMongoEnrollmentRepository(db *mongo.Database) repository.EnrollmentRepository {
	return &mongoEnrollmentRepository{
		collection: db.Collection(enrollmentCollectionName),
	}
}

// Create inserts a new enrollment document.
func (r *mongoEnrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	if enrollment.StudentID == "" || enrollment.BatchID == "" {
		return errors.New("enrollment requires studentId and batchId")
	}

	enrollment.ID = primitive.NewObjectID()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, enrollment)
	return err
}

// GetByStudentID retrieves the most recent enrollment for a student.
func (r *mongoEnrollmentRepository) GetByStudentID(ctx context.Context, studentID string) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	filter := bson.M{"studentId": studentID}
	opts := options.FindOne().SetSort(bson.D{{Key: "enrolledAt", Value: -1}})

	err := r.collection.FindOne(ctx, filter, opts).Decode(&enrollment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// GetByBatchID retrieves all enrollments for a batch.
func (r *mongoEnrollmentRepository) GetByBatchID(ctx context.Context, batchID string) ([]domain.Enrollment, error) {
	filter := bson.M{"batchId": batchID}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var enrollments []domain.Enrollment
	if err := cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// EnsureEnrollmentIndexes creates necessary indexes for the enrollments collection.
func EnsureEnrollmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "batchId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "batchId", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
