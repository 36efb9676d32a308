package archive

import "unicode/utf8"

const (
	StrengthWeak   = "weak"
	StrengthMedium = "medium"
	StrengthStrong = "strong"
)

// PasswordStrength grades a password by length: under 6 characters is weak,
// under 12 medium, anything longer strong. An empty password has no grade.
func PasswordStrength(password string) string {
	n := utf8.RuneCountInString(password)
	switch {
	case n == 0:
		return ""
	case n < 6:
		return StrengthWeak
	case n < 12:
		return StrengthMedium
	default:
		return StrengthStrong
	}
}
