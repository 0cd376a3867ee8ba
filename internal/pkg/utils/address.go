package utils

import "regexp"

var hexAddressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsHexAddress reports whether s is a well-formed 20-byte hex chain address.
func IsHexAddress(s string) bool {
	return hexAddressRe.MatchString(s)
}
