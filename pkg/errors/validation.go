package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// identifierRegex matches registry identifiers such as VK_KHR_swapchain or
// VK_VERSION_1_3. The registry mixes cases, so both are accepted.
var identifierRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateItemName validates an extension name received from outside the
// registry (CLI arguments, HTTP path parameters).
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - Maximum length of 256 characters
//   - Only letters, digits and underscores, starting with a letter
func ValidateItemName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "extension name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "extension name too long (max 256 characters)")
	}
	if !identifierRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid extension name: %q", name)
	}
	return nil
}

// ValidateVersionName validates a version name like VK_VERSION_1_2.
func ValidateVersionName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "version name cannot be empty")
	}
	if !identifierRegex.MatchString(name) || !strings.Contains(name, "_VERSION_") {
		return New(ErrCodeInvalidInput, "invalid version name: %q", name)
	}
	return nil
}

// ValidateFilename validates an output filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "filename cannot be empty")
	}
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "filename cannot contain path separators")
	}
	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidPath, "filename cannot be a hidden file")
	}
	for _, r := range filename {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "filename contains invalid characters")
		}
	}
	return nil
}
