// Package gcspath validates and splits the gs:// URIs the benchmarker
// accepts for template, entity, and output locations.
package gcspath

import (
	"regexp"
	"strings"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
)

// originalPattern accepts an optional trailing object (possibly empty),
// matching the original GsOriginalPathFormat.
var originalPattern = regexp.MustCompile(`^gs://([^/]+)/?(.*)$`)

// IsGCS reports whether path uses the gs:// scheme.
func IsGCS(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

// Parse splits a gs://bucket/object URI into its bucket and object parts.
// The object may be empty.
func Parse(path string) (bucket, object string, err error) {
	m := originalPattern.FindStringSubmatch(path)
	if m == nil {
		return "", "", bench.Newf(bench.InputMalformed, "invalid GCS path: %q", path)
	}
	return m[1], m[2], nil
}

// Normalize ensures a gs:// root path ends with a trailing slash, the way
// blob locations are normalized before objects are appended to them.
func Normalize(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}
