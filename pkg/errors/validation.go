package errors

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxHandleLength is the longest node handle accepted from user input.
const MaxHandleLength = 512

// SceneExtensions are the file extensions a scene document may have.
var SceneExtensions = []string{".yaml", ".yml", ".json", ".toml"}

// ValidateHandle validates a node handle received from the command line or
// the HTTP API. Handles are opaque, so only emptiness, length and control
// characters are checked.
func ValidateHandle(handle string) error {
	if handle == "" {
		return New(ErrCodeInvalidInput, "node handle cannot be empty")
	}
	if len(handle) > MaxHandleLength {
		return New(ErrCodeInvalidInput, "node handle too long (max %d characters)", MaxHandleLength)
	}
	for _, r := range handle {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node handle contains invalid control characters")
		}
	}
	return nil
}

// ValidateScenePath validates the path of a scene document.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Extension must be one of SceneExtensions
func ValidateScenePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "scene path cannot be empty")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "scene path contains invalid characters")
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(SceneExtensions, ext) {
		return New(ErrCodeInvalidPath, "unsupported scene file extension %q (want one of %s)",
			ext, strings.Join(SceneExtensions, ", "))
	}
	return nil
}

// ValidateSessionID validates a view session identifier.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "session ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid session ID %q", id)
	}
	return nil
}

// ValidateFormat validates an output format against the allowed list.
func ValidateFormat(format string, allowed []string) error {
	if !slices.Contains(allowed, format) {
		return New(ErrCodeInvalidFormat, "invalid format: %s (must be one of: %s)",
			format, strings.Join(allowed, ", "))
	}
	return nil
}
