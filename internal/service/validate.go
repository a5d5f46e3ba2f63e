package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input validation and sanitization for signup fields. All functions are
// pure and total over their inputs.

const (
	maxSanitizedLen = 255
	maxEmailLen     = 254
	minPasswordLen  = 8

	// The special characters accepted by the password policy.
	passwordSpecials = "@$!%*?&"
)

var (
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	javascriptScheme   = regexp.MustCompile(`(?i)javascript:`)
	inlineEventHandler = regexp.MustCompile(`(?i)on\w+\s*=`)
	unsafeCharacters   = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "")
)

// Sanitize trims, truncates, and strips characters and patterns commonly
// used for markup injection from free-text input. Idempotent.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxSanitizedLen {
		// Back the cut up to a rune boundary so a multibyte character
		// is never split.
		end := maxSanitizedLen
		for end > 0 && !utf8.RuneStart(s[end]) {
			end--
		}
		s = s[:end]
	}
	// Removing a match can splice a new one together, so strip to a
	// fixed point.
	for {
		stripped := unsafeCharacters.Replace(s)
		stripped = javascriptScheme.ReplaceAllString(stripped, "")
		stripped = inlineEventHandler.ReplaceAllString(stripped, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	return strings.TrimSpace(s)
}

// IsValidEmail reports whether the address matches a conservative pattern
// and does not exceed 254 characters.
func IsValidEmail(email string) bool {
	return len(email) <= maxEmailLen && emailPattern.MatchString(email)
}

// IsStrongPassword reports whether the password is at least 8 characters
// and contains an uppercase letter, a lowercase letter, a digit, and one
// of the accepted special characters.
func IsStrongPassword(password string) bool {
	return len(PasswordStrengthFeedback(password)) == 0
}

// PasswordStrengthFeedback lists the password requirements the given
// password does not meet, in user-facing wording. Empty for a strong
// password.
func PasswordStrengthFeedback(password string) []string {
	var feedback []string
	if len(password) < minPasswordLen {
		feedback = append(feedback, "At least 8 characters")
	}
	if !strings.ContainsFunc(password, isUpper) {
		feedback = append(feedback, "One uppercase letter")
	}
	if !strings.ContainsFunc(password, isLower) {
		feedback = append(feedback, "One lowercase letter")
	}
	if !strings.ContainsFunc(password, isDigit) {
		feedback = append(feedback, "One number")
	}
	if !strings.ContainsAny(password, passwordSpecials) {
		feedback = append(feedback, "One special character ("+passwordSpecials+")")
	}
	return feedback
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
