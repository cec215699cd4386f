package common

import (
	"regexp"
	"strings"
)

var (
	controlRe       = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	originAllowedRe = regexp.MustCompile(`[^0-9A-Za-zÀ-ÿ _./-]`)
	nonDigitRe      = regexp.MustCompile(`\D`)
)

func normalizeText(value string, maxLen int) string {
	text := strings.TrimSpace(value)
	if text == "" {
		return ""
	}
	text = controlRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	if maxLen > 0 && len(text) > maxLen {
		text = text[:maxLen]
	}
	return text
}

// SanitizeName normalizes a contact name for storage.
func SanitizeName(value string) string {
	return normalizeText(value, 80)
}

// SanitizeOrigin normalizes an origin tag, stripping characters outside
// the allowed set.
func SanitizeOrigin(value string) string {
	text := normalizeText(value, 80)
	if text == "" {
		return ""
	}
	return originAllowedRe.ReplaceAllString(text, "")
}

// SanitizePhone reduces a phone number to digits (plus an optional
// leading +). Anything shorter than 8 digits is discarded.
func SanitizePhone(value string) string {
	text := normalizeText(value, 40)
	if text == "" {
		return ""
	}
	var digits string
	if strings.HasPrefix(text, "+") {
		digits = "+" + nonDigitRe.ReplaceAllString(text[1:], "")
	} else {
		digits = nonDigitRe.ReplaceAllString(text, "")
	}
	if len(digits) > 20 {
		digits = digits[:20]
	}
	if len(strings.TrimPrefix(digits, "+")) < 8 {
		return ""
	}
	return digits
}
