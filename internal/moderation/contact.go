// Package moderation holds the contact-information rules applied to note content.
//
// The same two patterns back the authoritative server check and the advisory
// client check; clients fetch them from Rules() instead of keeping a copy.
package moderation

import (
	"regexp"

	"teamnotes/internal/domain/models/notes"
)

const (
	// EmailPattern matches local@domain.tld shaped tokens. Compiled case-insensitively.
	EmailPattern = `[a-z0-9._%+-]+@[a-z0-9-]+(?:\.[a-z0-9-]+)*\.[a-z]{2,}`

	// PhonePattern matches an optional + or 00 prefix followed by at least ten digits,
	// optionally grouped with single -, . or space separators. A bare run of ten or
	// more digits is the separator-free case of the same pattern.
	PhonePattern = `(?:\+|00)?\d(?:[-. ]?\d){9,}`

	// MinPhoneDigits is the digit count at which a sequence counts as a phone number
	MinPhoneDigits = 10
)

var (
	emailRe = regexp.MustCompile(`(?i)` + EmailPattern)
	phoneRe = regexp.MustCompile(PhonePattern)
)

// ContactRules is the language-neutral form of the detection rules
type ContactRules struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Flags     string `json:"flags"`
	MinDigits int    `json:"minDigits"`
}

// Rules returns the rule sources. Flags uses the JavaScript flag syntax.
func Rules() ContactRules {
	return ContactRules{
		Email:     EmailPattern,
		Phone:     PhonePattern,
		Flags:     "i",
		MinDigits: MinPhoneDigits,
	}
}

// ViolatesContactPolicy reports whether content contains an email address or phone number
func ViolatesContactPolicy(content string) bool {
	return ContainsEmail(content) || ContainsPhone(content)
}

// ContainsEmail reports whether content contains an email-shaped token
func ContainsEmail(content string) bool {
	return emailRe.MatchString(content)
}

// ContainsPhone reports whether content contains a phone-shaped digit sequence
func ContainsPhone(content string) bool {
	return phoneRe.MatchString(content)
}

// Applies reports whether the filter runs for an author. Administrators are exempt.
func Applies(settings notes.SystemNotesSettings, role notes.Role) bool {
	if !settings.ModerateContactInfo {
		return false
	}
	return role == notes.RoleClient || role == notes.RoleTranslator
}
