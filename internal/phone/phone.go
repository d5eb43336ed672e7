// Package phone normalizes member phone numbers into the NNN-NNNN-NNNN form
// used for registration and login.
package phone

import (
	"regexp"
	"strings"
)

// MaxDigits is the number of digits kept by Format.
const MaxDigits = 11

var mobilePattern = regexp.MustCompile(`^010-\d{4}-\d{4}$`)

// Format keeps only the digits of raw and groups them 3/4/4. Digits beyond
// MaxDigits are dropped. Partial input yields a prefix of the full pattern.
func Format(raw string) string {
	digits := digitsOf(raw)
	if len(digits) > MaxDigits {
		digits = digits[:MaxDigits]
	}

	switch {
	case len(digits) <= 3:
		return digits
	case len(digits) <= 7:
		return digits[:3] + "-" + digits[3:]
	default:
		return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
	}
}

// Validate reports whether formatted is a complete 010-dddd-dddd number.
func Validate(formatted string) bool {
	return mobilePattern.MatchString(formatted)
}

// Strip removes the hyphens inserted by Format.
func Strip(formatted string) string {
	return strings.ReplaceAll(formatted, "-", "")
}

// Normalize formats raw and reports whether the result is a valid number.
func Normalize(raw string) (string, bool) {
	formatted := Format(raw)
	return formatted, Validate(formatted)
}

func digitsOf(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
