package service

import (
	"context"
	"fmt"
	"time"

	"edupulse/lms-backend/internal/domain"
	"edupulse/lms-backend/internal/repository"
	"edupulse/lms-backend/internal/storage"
	"edupulse/lms-backend/internal/upload"

	"go.uber.org/zap"
)

// RecordingService runs the session-recording upload pipeline: validate the
// request, resolve student names, fan the files out into per-student object
// keys, and aggregate the per-pair outcomes. Verification of previously
// uploaded keys is a separate, best-effort operation.
type RecordingService interface {
	// StorageReady reports whether the object storage client is usable.
	// Callers check it before doing any request work (including spooling
	// uploads to disk) so misconfiguration fails with zero side effects.
	StorageReady() error

	UploadRecordings(ctx context.Context, req upload.Request) (*upload.ResultSet, error)
	VerifyRecordings(ctx context.Context, keys []string) ([]domain.VerificationRecord, error)
}

type recordingService struct {
	store       storage.ObjectStorage
	resolver    *upload.NameResolver
	uploader    *upload.Uploader
	verifier    *upload.Verifier
	sessionRepo repository.SessionRepository
	policy      upload.Policy
	logger      *zap.Logger
}

// NewRecordingService wires the pipeline components. The name resolver
// consults the student collection first, then the enrollment snapshot, then
// falls back to the sentinel name.
func NewRecordingService(
	store storage.ObjectStorage,
	studentRepo repository.StudentRepository,
	enrollmentRepo repository.EnrollmentRepository,
	sessionRepo repository.SessionRepository,
	urlExpiry time.Duration,
	logger *zap.Logger,
) RecordingService {
	return &recordingService{
		store: store,
		resolver: upload.NewNameResolver(logger,
			newStudentDirectory(studentRepo),
			newEnrollmentDirectory(enrollmentRepo),
		),
		uploader:    upload.NewUploader(store, urlExpiry, logger),
		verifier:    upload.NewVerifier(store, logger),
		sessionRepo: sessionRepo,
		policy:      upload.PolicyFailFast,
		logger:      logger,
	}
}

func (s *recordingService) StorageReady() error {
	return s.store.Available()
}

// UploadRecordings fans req.Files out across req.StudentIDs. Deterministic
// iteration order: outer files, inner students. Under the fail-fast policy
// the first transfer failure aborts the remaining pairs and the error names
// the offending key; objects already stored for earlier pairs are not
// rolled back.
func (s *recordingService) UploadRecordings(ctx context.Context, req upload.Request) (*upload.ResultSet, error) {
	if err := s.store.Available(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Temp files behind disk-backed sources are removed on every exit path.
	defer s.uploader.Cleanup(req.Files)

	names := s.resolver.ResolveAll(ctx, req.StudentIDs)

	agg := upload.NewAggregator(s.policy)
	for _, file := range req.Files {
		ext := upload.FileExtension(file.FileName)
		for _, studentID := range req.StudentIDs {
			key := upload.BuildObjectKey(req.BatchID, studentID, names[studentID], req.SessionNo, ext)
			outcome, err := s.uploader.Upload(ctx, file, studentID, key)
			agg.Add(outcome)
			if err != nil && s.policy == upload.PolicyFailFast {
				s.logger.Error("upload request aborted",
					zap.String("batchId", req.BatchID),
					zap.String("sessionNo", req.SessionNo),
					zap.String("failedKey", agg.FailedKey()),
				)
				return nil, err
			}
		}
	}

	result := agg.Result(req.BatchID, req.SessionNo)

	if err := s.persistRecordings(ctx, req.BatchID, req.SessionNo, result.Videos); err != nil {
		// The objects are in storage; only the metadata write failed.
		return nil, fmt.Errorf("persist recording keys for batch %s session %s: %w", req.BatchID, req.SessionNo, err)
	}

	s.logger.Info("session recordings uploaded",
		zap.String("batchId", req.BatchID),
		zap.String("sessionNo", req.SessionNo),
		zap.Int("files", len(req.Files)),
		zap.Int("students", len(req.StudentIDs)),
		zap.Int("outcomes", len(result.Videos)),
	)
	return result, nil
}

// persistRecordings hands the succeeded keys to the session-metadata store.
func (s *recordingService) persistRecordings(ctx context.Context, batchID, sessionNo string, outcomes []domain.UploadOutcome) error {
	refs := make([]domain.RecordingRef, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Status != domain.UploadStatusSucceeded {
			continue
		}
		refs = append(refs, domain.RecordingRef{
			S3Key:      o.S3Key,
			Size:       o.Size,
			UploadedAt: o.UploadedAt,
		})
	}
	return s.sessionRepo.AppendRecordings(ctx, batchID, sessionNo, refs)
}

// VerifyRecordings re-probes previously uploaded keys. Best-effort per key.
func (s *recordingService) VerifyRecordings(ctx context.Context, keys []string) ([]domain.VerificationRecord, error) {
	return s.verifier.VerifyKeys(ctx, keys)
}
