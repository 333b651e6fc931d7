package logger

import "strings"

// MaskPhone masks a guardian phone number, preserving the dialing prefix and
// the last two digits. Inbound numbers are personal data and must not land in
// logs verbatim.
func MaskPhone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	prefix := ""
	digits := value
	if strings.HasPrefix(value, "+") && len(value) > 3 {
		prefix = value[:3]
		digits = value[3:]
	}

	if len(digits) <= 2 {
		return prefix + strings.Repeat("*", len(digits))
	}
	return prefix + strings.Repeat("*", len(digits)-2) + digits[len(digits)-2:]
}

// MaskContent truncates free-text message content for log lines. Full content
// stays queryable in the messages table; logs only need enough to correlate.
func MaskContent(value string) string {
	const keep = 24
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= keep {
		return string(runes)
	}
	return string(runes[:keep]) + "…"
}
