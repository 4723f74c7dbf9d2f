package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateName validates a registry scope or package name for safety.
// It rejects names that could be used for path traversal or injection when
// joined onto a snapshot directory.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidReference, "name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidReference, "name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidReference, "name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidReference, "name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// wallyNameRegex matches scope and package names accepted by the Wally registry.
var wallyNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateWallyName validates a Wally scope or package name.
func ValidateWallyName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if !wallyNameRegex.MatchString(name) {
		return New(ErrCodeInvalidReference, "invalid scope or package name: %q", name)
	}

	return nil
}

// ValidateURL validates a registry index URL.
// Remote indexes must use http(s), ssh or git transports; file:// is
// accepted so local mirrors can be cloned.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	for _, scheme := range []string{"https://", "http://", "ssh://", "git://", "file://", "git@"} {
		if strings.HasPrefix(rawURL, scheme) {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "unsupported URL scheme: %q", rawURL)
}
