package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeakPasswordDenyList(t *testing.T) {
	for banned := range weakPasswords {
		t.Run(banned, func(t *testing.T) {
			res := Validate(banned, KindPassword)
			assert.False(t, res.Valid)
		})
	}

	// Case-insensitive match.
	res := Validate("PaSsWoRd123", KindPassword)
	assert.False(t, res.Valid)
}

func TestPasswordLengthBounds(t *testing.T) {
	assert.False(t, Validate("Ab1!x", KindPassword).Valid)
	assert.False(t, Validate(strings.Repeat("Ab1!", 40), KindPassword).Valid)
}

func TestPasswordMissingClassesNamed(t *testing.T) {
	res := Validate("alllowercase", KindPassword)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Message, "an uppercase letter")
	assert.Contains(t, res.Message, "a digit")
	assert.Contains(t, res.Message, "a symbol")
}

func TestPasswordStrengthBuckets(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     Strength
	}{
		{"all classes long", "Tehran!Bazaar#2026", StrengthStrong},
		{"three classes short", "Pass!word", StrengthMedium},
		{"lowercase only", "justletters", StrengthWeak},
		{"sequential penalty", "abcabcabcabc", StrengthWeak},
		{"repeated run penalty", "aaaaaaaaaaaa", StrengthWeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PasswordStrength(tt.password))
		})
	}
}

func TestPasswordAcceptsMediumAndUp(t *testing.T) {
	res := Validate("Pass!word", KindPassword)
	assert.True(t, res.Valid, "message: %s", res.Message)
}
