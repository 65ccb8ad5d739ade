package upload

import (
	"context"

	"edupulse/lms-backend/internal/domain"
	"edupulse/lms-backend/internal/storage"

	"go.uber.org/zap"
)

// Verifier re-probes previously uploaded keys for existence and integrity
// metadata. Best-effort: one key's failure never aborts the remaining
// probes. Report-only, it never attempts repair.
type Verifier struct {
	store  storage.ObjectStorage
	logger *zap.Logger
}

func NewVerifier(store storage.ObjectStorage, logger *zap.Logger) *Verifier {
	return &Verifier{store: store, logger: logger}
}

// VerifyKeys probes every key and classifies each independently. The only
// error it returns is storage unavailability, raised before any probe.
func (v *Verifier) VerifyKeys(ctx context.Context, keys []string) ([]domain.VerificationRecord, error) {
	if err := v.store.Available(); err != nil {
		return nil, err
	}

	records := make([]domain.VerificationRecord, 0, len(keys))
	for _, key := range keys {
		meta, err := v.store.Head(ctx, key)
		if err != nil {
			v.logger.Warn("recording verification failed",
				zap.String("key", key), zap.Error(err))
			records = append(records, domain.VerificationRecord{
				S3Key:    key,
				Verified: false,
				Error:    err.Error(),
			})
			continue
		}
		records = append(records, domain.VerificationRecord{
			S3Key:        key,
			Size:         meta.Size,
			LastModified: meta.LastModified,
			ETag:         meta.ETag,
			Verified:     true,
		})
	}
	return records, nil
}
