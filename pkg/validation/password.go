package validation

import (
	"strings"
)

type Strength int

const (
	StrengthWeak Strength = iota
	StrengthMedium
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthMedium:
		return "medium"
	case StrengthStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// Deny-list of passwords seen in every breach corpus. Matched
// case-insensitively before any scoring happens.
var weakPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"iloveyou":    {},
	"admin123":    {},
	"letmein1":    {},
	"welcome1":    {},
	"sunshine":    {},
	"football":    {},
	"monkey123":   {},
	"dragon123":   {},
	"abc12345":    {},
	"11111111":    {},
	"00000000":    {},
}

const (
	passwordMinLen = 8
	passwordMaxLen = 128
)

func validatePassword(value string) Result {
	if len(value) < passwordMinLen || len(value) > passwordMaxLen {
		return fail("password must be between 8 and 128 characters")
	}

	if _, banned := weakPasswords[strings.ToLower(value)]; banned {
		return fail("password is too common, choose something less guessable")
	}

	strength, missing := scorePassword(value)
	if strength == StrengthWeak {
		if len(missing) > 0 {
			return fail("password is too weak, add " + strings.Join(missing, ", "))
		}
		return fail("password is too weak, avoid repeated or sequential characters")
	}

	return ok(value)
}

// PasswordStrength exposes the bucketed score for UI meters.
func PasswordStrength(value string) Strength {
	s, _ := scorePassword(value)
	return s
}

// scorePassword rates character-class coverage with a bonus for length
// and penalties for lazy patterns, then buckets the score. It also
// reports which character classes are missing, so failure messages can
// name them.
func scorePassword(value string) (Strength, []string) {
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	score := 0
	var missing []string
	for _, class := range []struct {
		present bool
		label   string
	}{
		{hasLower, "a lowercase letter"},
		{hasUpper, "an uppercase letter"},
		{hasDigit, "a digit"},
		{hasSymbol, "a symbol"},
	} {
		if class.present {
			score++
		} else {
			missing = append(missing, class.label)
		}
	}

	if len(value) >= 12 {
		score++
	}
	if hasRepeatedRun(value) {
		score--
	}
	if hasSequentialPattern(value) {
		score--
	}

	switch {
	case score <= 2:
		return StrengthWeak, missing
	case score <= 4:
		return StrengthMedium, missing
	default:
		return StrengthStrong, missing
	}
}

// hasRepeatedRun reports three or more identical characters in a row.
func hasRepeatedRun(value string) bool {
	runes := []rune(strings.ToLower(value))
	for i := 2; i < len(runes); i++ {
		if runes[i] == runes[i-1] && runes[i] == runes[i-2] {
			return true
		}
	}
	return false
}

var sequences = []string{"123", "234", "345", "456", "567", "678", "789", "abc", "bcd", "cde", "def", "qwe", "wer", "ert", "asd", "sdf", "zxc"}

func hasSequentialPattern(value string) bool {
	lower := strings.ToLower(value)
	for _, seq := range sequences {
		if strings.Contains(lower, seq) {
			return true
		}
	}
	return false
}
