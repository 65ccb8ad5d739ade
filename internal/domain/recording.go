package domain

import "time"

// UploadStatus tracks the lifecycle of a single (file, student) transfer.
// Transitions: Pending -> Uploading -> {Succeeded, Failed}, then optionally
// Succeeded -> {Verified, VerificationFailed}. Terminal transfer states are
// never left again except for the verification refinement of Succeeded.
type UploadStatus string

const (
	UploadStatusPending            UploadStatus = "pending"
	UploadStatusUploading          UploadStatus = "uploading"
	UploadStatusSucceeded          UploadStatus = "succeeded"
	UploadStatusFailed             UploadStatus = "failed"
	UploadStatusVerified           UploadStatus = "verified"
	UploadStatusVerificationFailed UploadStatus = "verification_failed"
)

// UploadOutcome is the per-(file, student) result of the fan-out. One is
// produced for every pair the uploader touches. Persisting it into session
// metadata is the caller's job, not the pipeline's.
type UploadOutcome struct {
	S3Key        string       `json:"s3Key"`
	FileName     string       `json:"fileName"`
	StudentID    string       `json:"studentId"`
	Size         int64        `json:"size"`
	SignedURL    string       `json:"signedUrl,omitempty"`
	DirectURL    string       `json:"directUrl,omitempty"`
	UploadedAt   time.Time    `json:"uploadedAt,omitempty"`
	URLExpiresAt time.Time    `json:"urlExpiresAt,omitempty"`
	Status       UploadStatus `json:"status"`
	ErrorMessage string       `json:"error,omitempty"`
}

// NewUploadOutcome creates an outcome in the Pending state.
func NewUploadOutcome(key, fileName, studentID string, size int64) UploadOutcome {
	return UploadOutcome{
		S3Key:     key,
		FileName:  fileName,
		StudentID: studentID,
		Size:      size,
		Status:    UploadStatusPending,
	}
}

// Terminal reports whether the transfer has reached a final state.
func (o *UploadOutcome) Terminal() bool {
	switch o.Status {
	case UploadStatusSucceeded, UploadStatusFailed,
		UploadStatusVerified, UploadStatusVerificationFailed:
		return true
	}
	return false
}

// MarkUploading moves a pending outcome into the Uploading state.
func (o *UploadOutcome) MarkUploading() {
	if o.Status == UploadStatusPending {
		o.Status = UploadStatusUploading
	}
}

// MarkSucceeded records a completed transfer with its access URLs.
// No-op if the outcome is already terminal.
func (o *UploadOutcome) MarkSucceeded(signedURL, directURL string, uploadedAt, urlExpiresAt time.Time) {
	if o.Terminal() {
		return
	}
	o.SignedURL = signedURL
	o.DirectURL = directURL
	o.UploadedAt = uploadedAt
	o.URLExpiresAt = urlExpiresAt
	o.Status = UploadStatusSucceeded
}

// MarkFailed records a failed transfer. No-op if already terminal.
func (o *UploadOutcome) MarkFailed(err error) {
	if o.Terminal() {
		return
	}
	o.Status = UploadStatusFailed
	if err != nil {
		o.ErrorMessage = err.Error()
	}
}

// MarkVerified refines a succeeded outcome after a metadata probe
// confirmed the object. Only valid from Succeeded.
func (o *UploadOutcome) MarkVerified() {
	if o.Status == UploadStatusSucceeded {
		o.Status = UploadStatusVerified
	}
}

// MarkVerificationFailed refines a succeeded outcome after a metadata probe
// could not confirm the object. Only valid from Succeeded.
func (o *UploadOutcome) MarkVerificationFailed(reason string) {
	if o.Status == UploadStatusSucceeded {
		o.Status = UploadStatusVerificationFailed
		o.ErrorMessage = reason
	}
}

// VerificationRecord is the result of re-probing a previously uploaded key.
// Produced only by the verification service, never by the uploader.
type VerificationRecord struct {
	S3Key        string    `json:"s3Key"`
	Size         int64     `json:"size,omitempty"`
	LastModified time.Time `json:"lastModified,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	Verified     bool      `json:"verified"`
	Error        string    `json:"error,omitempty"`
}
