package leads

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d{0,3}[-.\s]?\(?\d{2,4}\)?[-.\s]?\d{3}[-.\s]?\d{3,4}`)
)

// ExtractEmail returns the first email address found in free text, or "".
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ExtractPhone returns the first phone-looking number found in free text,
// or "". Numbers with fewer than eight digits are rejected to avoid
// swallowing prices and dates.
func ExtractPhone(text string) string {
	match := phonePattern.FindString(text)
	if match == "" {
		return ""
	}
	digits := 0
	for _, r := range match {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 8 {
		return ""
	}
	return strings.TrimSpace(match)
}

// ExtractFieldValue pulls the named lead field out of a chat reply. For
// names the whole trimmed reply is taken, since users answer "Mario
// Rossi", not "my name is embedded here"; replies that look like
// addresses or numbers are rejected.
func ExtractFieldValue(field, text string) string {
	switch field {
	case FieldEmail:
		return ExtractEmail(text)
	case FieldPhone:
		return ExtractPhone(text)
	case FieldName:
		candidate := strings.TrimSpace(text)
		if candidate == "" || len(candidate) > 80 {
			return ""
		}
		if ExtractEmail(candidate) != "" || ExtractPhone(candidate) != "" {
			return ""
		}
		return candidate
	default:
		return ""
	}
}
