package validation

import (
	"fmt"
	"strings"
)

// Kind selects which validator runs. Adding a new kind is a compile-time
// checked extension: Validate's switch is exhaustive over these values.
type Kind int

const (
	KindEmail Kind = iota
	KindPassword
	KindName
	KindPhone
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindEmail:
		return "email"
	case KindPassword:
		return "password"
	case KindName:
		return "name"
	case KindPhone:
		return "phone"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of a single field validation. Validation failures
// are values, not errors: Valid is false and Message says why. Sanitized
// carries the normalized value when validation succeeds.
type Result struct {
	Valid     bool
	Message   string
	Sanitized string
}

func ok(sanitized string) Result {
	return Result{Valid: true, Sanitized: sanitized}
}

func fail(message string) Result {
	return Result{Valid: false, Message: message}
}

// Validate runs the validator selected by kind over value. It never
// panics and has no side effects.
//
// Injection screening runs only for KindText: email, name and password
// legitimately contain punctuation (dots, quotes, symbols) that would
// false-positive against the signature lists.
func Validate(value string, kind Kind) Result {
	switch kind {
	case KindEmail:
		return validateEmail(value)
	case KindPassword:
		return validatePassword(value)
	case KindName:
		return validateName(value)
	case KindPhone:
		return validatePhone(value)
	case KindText:
		return validateText(value)
	default:
		return fail(fmt.Sprintf("unknown validation kind %q", kind))
	}
}

// ValidateField is Validate with a field label prefixed onto failure
// messages, for building field-level error maps.
func ValidateField(value string, kind Kind, label string) Result {
	res := Validate(value, kind)
	if !res.Valid && label != "" {
		res.Message = label + ": " + res.Message
	}
	return res
}

const (
	emailMinLen  = 5
	emailMaxLen  = 254
	localMaxLen  = 64
	domainMaxLen = 253
)

func validateEmail(value string) Result {
	email := strings.ToLower(strings.TrimSpace(value))

	if len(email) < emailMinLen || len(email) > emailMaxLen {
		return fail(fmt.Sprintf("email must be between %d and %d characters", emailMinLen, emailMaxLen))
	}

	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") || at == len(email)-1 {
		return fail("email must contain exactly one @ separating local part and domain")
	}

	local, domain := email[:at], email[at+1:]
	if len(local) > localMaxLen {
		return fail(fmt.Sprintf("email local part must not exceed %d characters", localMaxLen))
	}
	if len(domain) > domainMaxLen {
		return fail(fmt.Sprintf("email domain must not exceed %d characters", domainMaxLen))
	}

	if strings.Contains(email, "..") {
		return fail("email must not contain consecutive dots")
	}
	if !isValidLocalPart(local) {
		return fail("email local part contains invalid characters")
	}
	if !isValidDomain(domain) {
		return fail("email domain is not valid")
	}

	return ok(email)
}

func isValidLocalPart(local string) bool {
	if local == "" || strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case strings.ContainsRune("._%+-", r):
		default:
			return false
		}
	}
	return true
}

func isValidDomain(domain string) bool {
	if domain == "" || !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") ||
		strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return false
	}
	for _, r := range domain {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}

func validateName(value string) Result {
	if value != strings.TrimSpace(value) {
		return fail("name must not start or end with a space")
	}
	runes := []rune(value)
	if len(runes) < 2 || len(runes) > 50 {
		return fail("name must be between 2 and 50 characters")
	}
	if strings.Contains(value, "  ") {
		return fail("name must not contain double spaces")
	}
	for _, r := range runes {
		if !isNameRune(r) {
			return fail("name may only contain Persian or Latin letters, spaces and hyphens")
		}
	}
	return ok(value)
}

// Persian letters live in the Arabic block plus the Persian-specific code
// points (پ چ ژ گ ک ی) and ZWNJ, which Persian compounds need.
func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= 0x0600 && r <= 0x06FF: // Arabic block, covers Persian letters
		return true
	case r == 0x200C: // zero-width non-joiner
		return true
	case r == ' ' || r == '-':
		return true
	default:
		return false
	}
}

func validatePhone(value string) Result {
	trimmed := strings.TrimSpace(value)
	// Phone is optional: absence is valid.
	if trimmed == "" {
		return ok("")
	}

	hasPlus := strings.HasPrefix(trimmed, "+")
	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else if r != '+' && r != ' ' && r != '-' && r != '(' && r != ')' {
			return fail("phone number contains invalid characters")
		}
	}
	normalized := digits.String()

	// Accepted Iranian mobile shapes, normalized to 09XXXXXXXXX.
	switch {
	case hasPlus && len(normalized) == 12 && strings.HasPrefix(normalized, "989"):
		return ok("0" + normalized[2:])
	case !hasPlus && len(normalized) == 11 && strings.HasPrefix(normalized, "09"):
		return ok(normalized)
	case !hasPlus && len(normalized) == 10 && strings.HasPrefix(normalized, "9"):
		return ok("0" + normalized)
	default:
		return fail("phone must be a valid Iranian mobile number")
	}
}

const textMaxLen = 1000

func validateText(value string) Result {
	trimmed := strings.TrimSpace(value)

	if matched, what := screenInjection(trimmed); matched {
		return fail("input contains a disallowed " + what + " pattern")
	}

	sanitized := stripDangerous(trimmed)
	if len(sanitized) > textMaxLen {
		sanitized = sanitized[:textMaxLen]
	}
	return ok(sanitized)
}
