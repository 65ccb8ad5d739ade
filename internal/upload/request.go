package upload

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError marks a malformed upload request. Surfaced before any
// network call or temp file is created.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid upload request: " + e.Reason
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Source is one recording file to fan out. Exactly one of Data or Path is
// set: small files are buffered in memory, large ones are spooled to a temp
// file on disk and streamed from there.
type Source struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte // in-memory payload, nil when disk-backed
	Path        string // temp file path, empty when buffered
}

// DiskBacked reports whether the source bytes live in a temp file.
func (s *Source) DiskBacked() bool {
	return s.Path != ""
}

// Request is a validated, normalized upload request: the cross-product of
// Files and StudentIDs is what gets transferred. Request-scoped and never
// shared across requests.
type Request struct {
	Files      []Source
	StudentIDs []string
	BatchID    string
	SessionNo  string
}

// ParseStudentIDs normalizes the studentIds form field. The field is either
// a JSON array of id strings or a bare single id.
func ParseStudentIDs(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, validationErrorf("studentIds is required")
	}

	if strings.HasPrefix(trimmed, "[") {
		var ids []string
		if err := json.Unmarshal([]byte(trimmed), &ids); err != nil {
			return nil, validationErrorf("studentIds is not a valid JSON array: %v", err)
		}
		if len(ids) == 0 {
			return nil, validationErrorf("studentIds array is empty")
		}
		for _, id := range ids {
			if strings.TrimSpace(id) == "" {
				return nil, validationErrorf("studentIds array contains an empty id")
			}
		}
		return ids, nil
	}

	// A bare id is accepted and normalized to a one-element list.
	return []string{trimmed}, nil
}

// Validate checks the request invariants. Pure: no side effects, no I/O.
func (r *Request) Validate() error {
	if len(r.Files) == 0 {
		return validationErrorf("no video files attached")
	}
	for _, f := range r.Files {
		if !strings.HasPrefix(strings.ToLower(f.ContentType), "video/") {
			return validationErrorf("file %q has unsupported content type %q, only video/* is accepted", f.FileName, f.ContentType)
		}
	}
	if len(r.StudentIDs) == 0 {
		return validationErrorf("studentIds is required")
	}
	if strings.TrimSpace(r.BatchID) == "" {
		return validationErrorf("batchId is required")
	}
	if strings.TrimSpace(r.SessionNo) == "" {
		return validationErrorf("sessionNo is required")
	}
	return nil
}
