package service

import (
	"regexp"
	"strings"
)

// e164Pattern is the canonical address rule: mandatory '+', a non-zero leading
// digit, then 6 to 14 more digits (7 to 15 digits in total).
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// ValidateAddress reports whether address is an E.164 phone number.
func ValidateAddress(address string) bool {
	return e164Pattern.MatchString(address)
}

// NormalizeAddress trims surrounding whitespace and makes sure the number carries its '+'.
// Every address accepted by ValidateAddress is returned unchanged.
func NormalizeAddress(address string) string {
	a := strings.TrimSpace(address)
	if a != "" && !strings.HasPrefix(a, "+") {
		a = "+" + a
	}
	return a
}

// SplitAddresses turns a comma-separated list typed by an operator into
// trimmed entries, dropping empty ones, and partitions them by validity.
func SplitAddresses(input string) (valid, invalid []string) {
	for _, part := range strings.Split(input, ",") {
		number := strings.TrimSpace(part)
		if number == "" {
			continue
		}
		if ValidateAddress(number) {
			valid = append(valid, number)
		} else {
			invalid = append(invalid, number)
		}
	}
	return valid, invalid
}
