package phone

import "regexp"

// E.164-ish: optional +, optional US country code, 9-14 digits total.
var (
	formatRe   = regexp.MustCompile(`^\+?1?\d{9,14}$`)
	nonDigitRe = regexp.MustCompile(`[^\d+]`)
)

// Valid reports whether the phone number is in an acceptable format.
func Valid(number string) bool {
	return formatRe.MatchString(number)
}

// Normalize strips formatting characters and prefixes the default +1
// country code when none is present. Returns the normalized number and
// whether it is valid.
func Normalize(number string) (string, bool) {
	if number == "" {
		return "", false
	}
	cleaned := nonDigitRe.ReplaceAllString(number, "")
	if len(cleaned) > 0 && cleaned[0] != '+' {
		if cleaned[0] == '1' && len(cleaned) == 11 {
			cleaned = "+" + cleaned
		} else {
			cleaned = "+1" + cleaned
		}
	}
	if !Valid(cleaned) {
		return "", false
	}
	return cleaned, true
}
