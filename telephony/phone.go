package telephony

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]+$`)

// ValidPhoneNumber is a loose syntax check: an optional leading + then digits, spaces,
// dashes and parentheses. The provider does the real validation.
func ValidPhoneNumber(number string) bool {
	return phonePattern.MatchString(strings.TrimSpace(number)) && strings.ContainsAny(number, "0123456789")
}
