package utils

import (
	"fmt"
	"strings"
)

// GenerateETag quotes the stored document SHA as a strong entity tag.
func GenerateETag(sha string) string {
	if sha == "" {
		return ""
	}
	return fmt.Sprintf("%q", sha)
}

// ETagMatches reports whether an If-None-Match header names etag.
// It accepts weak validators and comma separated lists.
func ETagMatches(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
