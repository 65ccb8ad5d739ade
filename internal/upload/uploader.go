package upload

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"edupulse/lms-backend/internal/domain"
	"edupulse/lms-backend/internal/storage"

	"go.uber.org/zap"
)

// Uploader moves the bytes of one source into storage at a given key and
// issues access URLs. Strategy selection: disk-backed sources stream as a
// multipart upload, in-memory sources go out as a single atomic PUT.
type Uploader struct {
	store     storage.ObjectStorage
	urlExpiry time.Duration
	logger    *zap.Logger
}

func NewUploader(store storage.ObjectStorage, urlExpiry time.Duration, logger *zap.Logger) *Uploader {
	if urlExpiry <= 0 {
		urlExpiry = storage.DefaultPresignedURLExpiry
	}
	return &Uploader{store: store, urlExpiry: urlExpiry, logger: logger}
}

// Upload transfers one source to key and returns a terminal outcome plus
// the transfer error, if any. The error is also recorded on the outcome.
func (u *Uploader) Upload(ctx context.Context, src Source, studentID, key string) (domain.UploadOutcome, error) {
	outcome := domain.NewUploadOutcome(key, src.FileName, studentID, src.Size)
	outcome.MarkUploading()

	var err error
	if src.DiskBacked() {
		// Pre-flight: refuse to touch the network for a missing or empty file.
		info, statErr := os.Stat(src.Path)
		switch {
		case statErr != nil:
			err = &storage.TransferError{Key: key, Err: fmt.Errorf("source file unreadable: %w", statErr)}
		case info.Size() == 0:
			err = &storage.TransferError{Key: key, Err: fmt.Errorf("source file %q is empty", src.FileName)}
		default:
			err = u.store.UploadFile(ctx, key, src.ContentType, src.Path)
		}
	} else {
		err = u.store.Put(ctx, key, src.ContentType, bytes.NewReader(src.Data), src.Size)
	}
	if err != nil {
		outcome.MarkFailed(err)
		u.logger.Error("recording transfer failed",
			zap.String("key", key), zap.String("studentId", studentID), zap.Error(err))
		return outcome, err
	}

	signedURL, err := u.store.GeneratePresignedDownloadURL(ctx, key, u.urlExpiry)
	if err != nil {
		// The object is stored but unreachable for the caller; treat as a
		// failed pair so the request does not hand out a dead entry.
		err = &storage.TransferError{Key: key, Err: err}
		outcome.MarkFailed(err)
		return outcome, err
	}

	now := time.Now().UTC()
	outcome.MarkSucceeded(signedURL, u.store.ObjectURL(key), now, now.Add(u.urlExpiry))
	u.logger.Info("recording uploaded",
		zap.String("key", key),
		zap.String("studentId", studentID),
		zap.Int64("size", src.Size),
	)
	return outcome, nil
}

// Cleanup deletes the temp files behind disk-backed sources. Called on
// every exit path of a request; a deletion failure is logged and never
// surfaced to the caller.
func (u *Uploader) Cleanup(files []Source) {
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			u.logger.Warn("temp file cleanup failed",
				zap.String("path", f.Path), zap.Error(err))
		}
	}
}
