package model

import "strings"

// IsHTTPURL reports whether a source locator is already an absolute
// http(s) URL rather than a storage-relative object path.
func IsHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
