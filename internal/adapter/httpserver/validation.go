package httpserver

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

var validSubjectID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateSubjectID validates a subject identifier from the URL or body.
func ValidateSubjectID(id string) ValidationResult {
	if id == "" {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "subject_id", Code: "REQUIRED", Message: "Subject ID is required"},
			},
		}
	}
	if len(id) > 100 {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "subject_id", Code: "TOO_LONG", Message: "Subject ID is too long (max 100 characters)"},
			},
		}
	}
	if !validSubjectID.MatchString(id) {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "subject_id", Code: "INVALID_FORMAT", Message: "Subject ID contains invalid characters"},
			},
		}
	}
	return ValidationResult{Valid: true}
}

// SanitizeSubjectID strips characters outside the allowed id alphabet.
func SanitizeSubjectID(id string) string {
	id = regexp.MustCompile(`[^a-zA-Z0-9_-]`).ReplaceAllString(id, "")
	if len(id) > 100 {
		id = id[:100]
	}
	return id
}

// SanitizeString sanitizes a free-text string input.
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)
	if len(input) > 1000 {
		input = input[:1000]
	}
	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "")
	}
	return input
}
