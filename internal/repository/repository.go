package repository

import (
	"context"

	"edupulse/lms-backend/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// StudentRepository is the primary directory for resolving student names.
type StudentRepository interface {
	Create(ctx context.Context, student *domain.Student) error
	GetByStudentID(ctx context.Context, studentID string) (*domain.Student, error)
}

// EnrollmentRepository is the secondary directory: it carries a denormalized
// student name captured at enrollment time.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *domain.Enrollment) error
	GetByStudentID(ctx context.Context, studentID string) (*domain.Enrollment, error)
	GetByBatchID(ctx context.Context, batchID string) ([]domain.Enrollment, error)
}

// SessionRepository persists session metadata, including the recording keys
// returned by the upload pipeline. The pipeline itself never writes here;
// the HTTP layer hands it the outcomes to store.
type SessionRepository interface {
	GetByBatchAndNumber(ctx context.Context, batchID, sessionNo string) (*domain.Session, error)
	AppendRecordings(ctx context.Context, batchID, sessionNo string, recordings []domain.RecordingRef) error
}
