package errors

import (
	"path"
	"regexp"
	"strings"
	"unicode"
)

// ValidateEntityName validates a declared entity name (network, group, device,
// gateway) for safety and correctness. Node identifiers are derived from these
// names, so anything that could corrupt an id or a file path is rejected.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No whitespace
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateEntityName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidName, "name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid control characters")
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidName, "name cannot contain whitespace: %q", name)
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// networkNameRegex matches valid network and backbone-group names.
// Names start alphanumeric and may contain dots, underscores, and hyphens.
var networkNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateNetworkName validates a private-network or backbone-group name.
func ValidateNetworkName(name string) error {
	if err := ValidateEntityName(name); err != nil {
		return err
	}

	if !networkNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid network name: %q", name)
	}

	return nil
}

// deviceNameRegex matches valid device and gateway names.
var deviceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateDeviceName validates a device or gateway name.
func ValidateDeviceName(name string) error {
	if err := ValidateEntityName(name); err != nil {
		return err
	}

	if !deviceNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid device name: %q", name)
	}

	return nil
}

// ValidateOverridePattern validates a structural-override glob pattern.
// Patterns use path.Match syntax ('*', '?', character classes).
func ValidateOverridePattern(pattern string) error {
	if pattern == "" {
		return New(ErrCodeInvalidOverride, "override pattern cannot be empty")
	}

	if _, err := path.Match(pattern, ""); err != nil {
		return New(ErrCodeInvalidOverride, "malformed override pattern: %q", pattern)
	}

	return nil
}

// ValidatePath validates a file path supplied on the command line. It rejects
// control characters and enforces a reasonable length; it deliberately does
// not reject relative or parent-directory paths, because the operator invoking
// the binary may load declarations from anywhere they can read. Paths never
// reach this function from the HTTP API, which strips them from request
// bodies before processing.
func ValidatePath(p string) error {
	if p == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(p) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range p {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
