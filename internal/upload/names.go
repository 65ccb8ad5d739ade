package upload

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// FallbackStudentName is used when no directory can resolve a student id.
// Resolution never fails a request; it degrades to this sentinel.
const FallbackStudentName = "unknown"

// DirectoryLookup resolves a student id to a display name in one directory.
// Implementations return ok=false when the directory has no entry; an error
// is treated the same as a miss by the resolver.
type DirectoryLookup interface {
	LookupName(ctx context.Context, studentID string) (name string, ok bool, err error)
}

// NameResolver walks an ordered list of directories and returns the first
// hit, sanitized for use inside an object key. Misses in every directory
// yield FallbackStudentName.
type NameResolver struct {
	lookups []DirectoryLookup
	logger  *zap.Logger
}

func NewNameResolver(logger *zap.Logger, lookups ...DirectoryLookup) *NameResolver {
	return &NameResolver{lookups: lookups, logger: logger}
}

// Resolve returns the sanitized display name for one student id.
func (r *NameResolver) Resolve(ctx context.Context, studentID string) string {
	for _, lookup := range r.lookups {
		name, ok, err := lookup.LookupName(ctx, studentID)
		if err != nil {
			// Degrade to the next directory rather than failing the request.
			r.logger.Warn("student name lookup failed",
				zap.String("studentId", studentID), zap.Error(err))
			continue
		}
		if ok {
			if sanitized := Sanitize(name); sanitized != "" {
				return sanitized
			}
		}
	}
	return FallbackStudentName
}

// ResolveAll resolves every id in the list. The result always contains an
// entry for every input id.
func (r *NameResolver) ResolveAll(ctx context.Context, studentIDs []string) map[string]string {
	names := make(map[string]string, len(studentIDs))
	for _, id := range studentIDs {
		names[id] = r.Resolve(ctx, id)
	}
	return names
}

var (
	disallowedChars = regexp.MustCompile(`[^a-z0-9_ ]+`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// Sanitize makes a display name safe for object keys: lowercase, strip
// everything outside letters/digits/spaces, trim, collapse whitespace runs
// to a single underscore. Idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(name string) string {
	s := strings.ToLower(name)
	s = disallowedChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = whitespaceRun.ReplaceAllString(s, "_")
	return s
}
