package github

import (
	"regexp"
	"strings"
)

var usernameRE = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,37}[a-zA-Z0-9])?$`)

// ExtractUsername accepts a bare login or a github.com profile URL (with or without
// scheme, www. or trailing path) and returns the login.
func ExtractUsername(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "/.") {
		return s
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimPrefix(s, "github.com")
	s = strings.Trim(s, "/")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}

// ValidUsername reports whether s is shaped like a GitHub login: alphanumerics and
// single inner hyphens, at most 39 characters.
func ValidUsername(s string) bool {
	return usernameRE.MatchString(s) && !strings.Contains(s, "--")
}
