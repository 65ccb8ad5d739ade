package upload

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileExtension(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"lecture.mp4", "mp4"},
		{"lecture.MOV", "mov"},
		{"archive.tar.gz", "gz"},
		{"noextension", "mp4"},
		{"", "mp4"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.fileName), func(t *testing.T) {
			assert.Equal(t, tt.want, FileExtension(tt.fileName))
		})
	}
}

func TestBuildObjectKey(t *testing.T) {
	pattern := regexp.MustCompile(`^videos/b1/s1\(jane_obrien\)/session-3/\d+-[a-z0-9]{8}\.mp4$`)

	key := BuildObjectKey("b1", "s1", "jane_obrien", "3", "mp4")
	assert.Regexp(t, pattern, key)
}

func TestBuildObjectKeyUniqueness(t *testing.T) {
	// Identical inputs must still never collide.
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		key := BuildObjectKey("b1", "s1", "jane_obrien", "3", "mp4")
		_, dup := seen[key]
		assert.False(t, dup, "duplicate key generated: %s", key)
		seen[key] = struct{}{}
	}
}

func TestFolderStructure(t *testing.T) {
	assert.Equal(t,
		"videos/b1/[student_id]([student_name])/session-3/",
		FolderStructure("b1", "3"),
	)
}
