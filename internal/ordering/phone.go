package ordering

import "strings"

// NormalizePhone rewrites a Singapore phone number to +65XXXXXXXX.
// Accepts optional +65/65 prefixes, spaces and dashes. SG subscriber
// numbers are 8 digits starting with 3, 6, 8 or 9.
func NormalizePhone(raw string) (string, bool) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	number := digits.String()
	if strings.HasPrefix(number, "65") && len(number) == 10 {
		number = number[2:]
	}
	if len(number) != 8 {
		return "", false
	}
	switch number[0] {
	case '3', '6', '8', '9':
		return "+65" + number, true
	}
	return "", false
}
