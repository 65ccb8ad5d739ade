package upload

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultExtension is used when the original filename has no extension.
const DefaultExtension = "mp4"

// FileExtension returns the last dot-segment of a filename, lowercased,
// or DefaultExtension when absent.
func FileExtension(fileName string) string {
	ext := strings.TrimPrefix(path.Ext(fileName), ".")
	if ext == "" {
		return DefaultExtension
	}
	return strings.ToLower(ext)
}

// BuildObjectKey constructs the canonical storage key for one
// (file, student) pair:
//
//	videos/{batchId}/{studentId}({name})/session-{sessionNo}/{unixMillis}-{rand8}.{ext}
//
// The millisecond timestamp plus random suffix makes keys unique even when
// the same file is uploaded twice for the same student.
func BuildObjectKey(batchID, studentID, sanitizedName, sessionNo, ext string) string {
	return fmt.Sprintf("videos/%s/%s(%s)/session-%s/%d-%s.%s",
		batchID, studentID, sanitizedName, sessionNo,
		time.Now().UnixMilli(), randomSuffix(), ext)
}

// randomSuffix returns 8 random hex characters.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// FolderStructure describes the key layout of a batch session for the
// response payload.
func FolderStructure(batchID, sessionNo string) string {
	return fmt.Sprintf("videos/%s/[student_id]([student_name])/session-%s/", batchID, sessionNo)
}
