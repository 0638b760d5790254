package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateComponentPath validates a component path from untrusted input.
// It rejects paths that could be used for traversal or injection attacks
// before they reach the resolver or appear in rendered output.
//
// The validation rules are intentionally conservative:
//   - No empty paths
//   - No control characters or whitespace
//   - No path traversal sequences (.., leading /)
//   - No backslashes
//   - Maximum length of 256 characters
func ValidateComponentPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "component path cannot be empty")
	}

	if len(path) > 256 {
		return New(ErrCodeInvalidInput, "component path too long (max 256 characters)")
	}

	for _, r := range path {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "component path contains invalid characters")
		}
	}

	// Check for traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(path, pattern) {
			return New(ErrCodeInvalidInput, "component path contains invalid sequence: %q", pattern)
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "component path must be relative (cannot start with /)")
	}

	return nil
}

// branchNameRegex matches valid branch names. Git allows more, but the
// dependency data files only ever use this subset.
var branchNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*$`)

// ValidateBranch validates a branch name from untrusted input.
// The catch-all branch "*" is accepted.
func ValidateBranch(branch string) error {
	if branch == "" || branch == "*" {
		return nil
	}

	if len(branch) > 128 {
		return New(ErrCodeInvalidInput, "branch name too long (max 128 characters)")
	}

	if strings.Contains(branch, "..") {
		return New(ErrCodeInvalidInput, "branch name cannot contain path traversal sequences (..)")
	}

	if !branchNameRegex.MatchString(branch) {
		return New(ErrCodeInvalidInput, "invalid branch name: %q", branch)
	}

	return nil
}
