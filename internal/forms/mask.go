package forms

import "strings"

// Mask redacts a sensitive value for display and logging, keyed by field
// semantics. Unknown fields pass through unchanged.
func Mask(fieldName, value string) string {
	switch strings.ToLower(fieldName) {
	case "id_number", "national_id":
		return maskKeepEnds(value, 3, 2, 10)
	case "phone", "mobile":
		return maskKeepEnds(value, 4, 3, 8)
	case "email":
		return maskEmail(value)
	default:
		return value
	}
}

// maskKeepEnds keeps the first head and last tail characters and stars the
// middle. Values shorter than minLen are returned as-is.
func maskKeepEnds(value string, head, tail, minLen int) string {
	runes := []rune(value)
	if len(runes) < minLen {
		return value
	}
	masked := len(runes) - head - tail
	return string(runes[:head]) + strings.Repeat("*", masked) + string(runes[len(runes)-tail:])
}

func maskEmail(value string) string {
	at := strings.Index(value, "@")
	if at < 0 {
		return value
	}
	local := value[:at]
	if len(local) > 3 {
		local = local[:3]
	}
	return local + "***@" + value[at+1:]
}
