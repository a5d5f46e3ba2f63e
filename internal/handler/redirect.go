package handler

import "strings"

// Paths a post-login redirect may never land on.
var blockedRedirectPrefixes = []string{"/api/", "/admin/", "/system/"}

// safeRedirectPath returns the given target if it is a safe relative
// redirect destination, or "" otherwise. Absolute URLs and
// protocol-relative URLs are rejected to prevent open redirects.
func safeRedirectPath(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return ""
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return ""
	}
	for _, prefix := range blockedRedirectPrefixes {
		if strings.Contains(target, prefix) {
			return ""
		}
	}
	return target
}
