// Package sanitize strips markup from client-supplied free text before
// it is persisted or echoed back in API responses.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// Text removes all HTML tags and attributes from value and trims
// surrounding whitespace. Plain text passes through unchanged.
func Text(value string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(value))
}
