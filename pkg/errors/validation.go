package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name for safety and correctness.
// It rejects names that could be used for path traversal or injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// cratesPackageNameRegex matches valid crates.io package names.
var cratesPackageNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidateCratesPackageName validates a crates.io package name.
func ValidateCratesPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}

	if !cratesPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid crates.io package name: %q", name)
	}

	return nil
}

// ValidatePath validates a scan subdirectory given on the command line.
//
// Validation rules:
//   - Empty is allowed (scan the whole root)
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative to the root)
//   - No parent directory segments (..)
func ValidatePath(path string) error {
	if path == "" {
		return nil
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with a separator)")
	}

	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain parent directory segments (..)")
		}
	}

	return nil
}

// ValidateURL validates the repository URL stamped onto source units.
// Empty is allowed; otherwise a scheme-qualified URL or an scp-style git
// remote (git@host:owner/repo) is required.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return nil
	}

	if strings.ContainsFunc(rawURL, unicode.IsSpace) {
		return New(ErrCodeInvalidConfig, "repository URL cannot contain whitespace")
	}

	if strings.Contains(rawURL, "://") || strings.HasPrefix(rawURL, "git@") {
		return nil
	}

	return New(ErrCodeInvalidConfig, "repository URL must include a scheme: %q", rawURL)
}

// locatorKinds lists the source kinds cargo emits in source locators.
var locatorKinds = []string{"registry", "sparse", "path", "git", "directory", "local-registry"}

// ValidateLocator validates a cargo source locator such as
// "registry+https://github.com/rust-lang/crates.io-index".
func ValidateLocator(locator string) error {
	kind, rest, ok := strings.Cut(locator, "+")
	if !ok || rest == "" {
		return New(ErrCodeInvalidLocator, "source locator must have the form <kind>+<url>: %q", locator)
	}
	for _, k := range locatorKinds {
		if k == kind {
			if !strings.Contains(rest, "://") {
				return New(ErrCodeInvalidLocator, "source locator has no URL scheme: %q", locator)
			}
			return nil
		}
	}
	return New(ErrCodeInvalidLocator, "unknown source kind %q in %q", kind, locator)
}
