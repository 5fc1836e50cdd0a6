package errors

import (
	"strings"
	"unicode"
)

// ValidateEntityID validates a graph entity identifier.
// It rejects ids that would break map keys, cache keys, or serialized output.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No leading/trailing whitespace
//   - Maximum length of 256 characters
func ValidateEntityID(code Code, id string) error {
	if id == "" {
		return New(code, "id must not be empty")
	}

	if len(id) > 256 {
		return New(code, "id too long (max 256 characters): %q", id[:32]+"...")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(code, "id contains control characters: %q", id)
		}
	}

	if strings.TrimSpace(id) != id {
		return New(code, "id must not have leading or trailing whitespace: %q", id)
	}

	return nil
}

// ValidateLabel validates a display label for nodes and containers.
// Labels must be non-empty and free of control characters other than newlines
// (multi-line labels are allowed for long-form descriptions).
func ValidateLabel(code Code, label string) error {
	if label == "" {
		return New(code, "label must not be empty")
	}

	const maxLabelLength = 1024
	if len(label) > maxLabelLength {
		return New(code, "label too long (max %d characters)", maxLabelLength)
	}

	for _, r := range label {
		if r != '\n' && unicode.IsControl(r) {
			return New(code, "label contains control characters")
		}
	}

	return nil
}
