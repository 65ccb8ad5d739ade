package service

import (
	"context"
	"errors"

	"edupulse/lms-backend/internal/repository"
	"edupulse/lms-backend/internal/upload"
)

// studentDirectory resolves names from the student collection (primary).
type studentDirectory struct {
	repo repository.StudentRepository
}

func newStudentDirectory(repo repository.StudentRepository) upload.DirectoryLookup {
	return &studentDirectory{repo: repo}
}

func (d *studentDirectory) LookupName(ctx context.Context, studentID string) (string, bool, error) {
	student, err := d.repo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return student.FullName, student.FullName != "", nil
}

// enrollmentDirectory resolves names from the denormalized copy captured at
// enrollment time (secondary, used when the student record is missing).
type enrollmentDirectory struct {
	repo repository.EnrollmentRepository
}

func newEnrollmentDirectory(repo repository.EnrollmentRepository) upload.DirectoryLookup {
	return &enrollmentDirectory{repo: repo}
}

func (d *enrollmentDirectory) LookupName(ctx context.Context, studentID string) (string, bool, error) {
	enrollment, err := d.repo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return enrollment.StudentName, enrollment.StudentName != "", nil
}
