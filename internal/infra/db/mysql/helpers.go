package mysql

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

// escapeLikePattern escapes special characters in LIKE patterns to prevent SQL injection
func escapeLikePattern(s string) string {
	// Escape backslash first, then other LIKE special characters
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", analysis.ErrPersistence, op, err)
}
