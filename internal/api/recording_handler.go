package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"edupulse/lms-backend/internal/domain"
	"edupulse/lms-backend/internal/service"
	"edupulse/lms-backend/internal/storage"
	"edupulse/lms-backend/internal/upload"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Form field names of the upload endpoint.
const (
	formFieldVideos     = "videos"
	formFieldStudentIDs = "studentIds"
	formFieldBatchID    = "batchId"
	formFieldSessionNo  = "sessionNo"
)

type RecordingHandler struct {
	recordingService service.RecordingService
	memoryLimit      int64 // files above this are spooled to disk
	logger           *zap.Logger
}

func NewRecordingHandler(recordingService service.RecordingService, memoryLimit int64, logger *zap.Logger) *RecordingHandler {
	return &RecordingHandler{
		recordingService: recordingService,
		memoryLimit:      memoryLimit,
		logger:           logger,
	}
}

// --- DTOs ---

type verifyRecordingsRequest struct {
	Videos []struct {
		S3Key string `json:"s3Key" binding:"required"`
	} `json:"videos" binding:"required,min=1"`
}

// respondError writes the error envelope and aborts the request.
func respondError(c *gin.Context, code int, message string, err error) {
	body := gin.H{"status": "error", "message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	c.AbortWithStatusJSON(code, body)
}

// UploadSessionRecordings handles POST /sessions/recordings.
// Multipart form: file parts "videos", fields "studentIds" (JSON array or
// bare id), "batchId", "sessionNo". Each file is fanned out to every
// student; the request fails as a whole on the first transfer error.
func (h *RecordingHandler) UploadSessionRecordings(c *gin.Context) {
	// Misconfigured storage must fail before any request work, including
	// spooling upload parts to temp files.
	if err := h.recordingService.StorageReady(); err != nil {
		respondError(c, http.StatusServiceUnavailable, "Storage backend is not available.", err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Malformed multipart form.", err)
		return
	}

	studentIDs, err := upload.ParseStudentIDs(c.PostForm(formFieldStudentIDs))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request.", err)
		return
	}

	fileHeaders := form.File[formFieldVideos]
	req := upload.Request{
		Files:      make([]upload.Source, 0, len(fileHeaders)),
		StudentIDs: studentIDs,
		BatchID:    c.PostForm(formFieldBatchID),
		SessionNo:  c.PostForm(formFieldSessionNo),
	}
	for _, fh := range fileHeaders {
		req.Files = append(req.Files, upload.Source{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		})
	}

	// Validate on header metadata alone, before a single byte is copied.
	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request.", err)
		return
	}

	// Materialize sources: small files into memory, large ones onto disk.
	for i, fh := range fileHeaders {
		if err := h.materializeSource(c, fh, &req.Files[i]); err != nil {
			removeTempFiles(req.Files, h.logger)
			respondError(c, http.StatusInternalServerError, "Failed to read uploaded file.", err)
			return
		}
	}

	// Detach from the client connection: a disconnect must not halt
	// in-flight transfers.
	ctx := context.WithoutCancel(c.Request.Context())

	result, err := h.recordingService.UploadRecordings(ctx, req)
	if err != nil {
		var validationErr *upload.ValidationError
		var transferErr *storage.TransferError
		switch {
		case errors.As(err, &validationErr):
			respondError(c, http.StatusBadRequest, "Invalid request.", err)
		case errors.Is(err, storage.ErrUnavailable):
			respondError(c, http.StatusServiceUnavailable, "Storage backend is not available.", err)
		case errors.As(err, &transferErr):
			respondError(c, http.StatusInternalServerError,
				"Upload failed for key "+transferErr.Key+".", err)
		default:
			respondError(c, http.StatusInternalServerError, "Failed to upload session recordings.", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Session recordings uploaded.",
		"data":    result,
	})
}

// materializeSource fills in src.Data or src.Path depending on file size.
func (h *RecordingHandler) materializeSource(c *gin.Context, fh *multipart.FileHeader, src *upload.Source) error {
	if fh.Size > h.memoryLimit {
		tmp, err := os.CreateTemp("", "recording-*.tmp")
		if err != nil {
			return err
		}
		tmp.Close()
		if err := c.SaveUploadedFile(fh, tmp.Name()); err != nil {
			os.Remove(tmp.Name())
			return err
		}
		src.Path = tmp.Name()
		return nil
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	src.Data = data
	return nil
}

// removeTempFiles cleans up spooled sources when the request dies before
// reaching the pipeline (which owns cleanup from then on).
func removeTempFiles(files []upload.Source, logger *zap.Logger) {
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			logger.Warn("temp file cleanup failed", zap.String("path", f.Path), zap.Error(err))
		}
	}
}

// VerifyRecordings handles POST /sessions/recordings/verify.
// Re-probes previously uploaded keys; one key's failure never aborts the
// remaining probes.
func (h *RecordingHandler) VerifyRecordings(c *gin.Context) {
	var req verifyRecordingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body.", err)
		return
	}

	keys := make([]string, 0, len(req.Videos))
	for _, v := range req.Videos {
		keys = append(keys, v.S3Key)
	}

	records, err := h.recordingService.VerifyRecordings(c.Request.Context(), keys)
	if err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			respondError(c, http.StatusServiceUnavailable, "Storage backend is not available.", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to verify recordings.", err)
		return
	}

	verified := make([]domain.VerificationRecord, 0, len(records))
	failed := make([]domain.VerificationRecord, 0)
	for _, r := range records {
		if r.Verified {
			verified = append(verified, r)
		} else {
			failed = append(failed, r)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"verifiedVideos":      verified,
			"failedVerifications": failed,
		},
	})
}
