package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// maxNodeNameLength bounds imported node names.
const maxNodeNameLength = 256

// ValidateNodeName validates a node name read from a graph file or an API call.
//
// Node ids generated by the editor always pass. Imported names must be:
//   - non-empty
//   - at most 256 characters
//   - free of control characters
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidArgument, "node name cannot be empty")
	}

	if len(name) > maxNodeNameLength {
		return New(ErrCodeInvalidArgument, "node name too long (max %d characters)", maxNodeNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidArgument, "node name contains invalid control characters")
		}
	}

	return nil
}

// ValidateURL validates the analysis service base URL.
// It must be absolute, use http or https and name a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidConfig, "URL must use http or https scheme")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "invalid URL %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidConfig, "URL %q has no host", rawURL)
	}

	return nil
}
