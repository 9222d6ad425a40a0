package utils

import (
	"math"
	"strconv"
	"strings"
)

// ParseInteger normalizes a decoded JSON value into an integer. Numbers
// must be integral; strings are stripped of every non-digit character
// before parsing. The second return value reports success.
func ParseInteger(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		return int(v), true
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false
		}
		digits := DigitsOnly(v)
		if digits == "" {
			return 0, false
		}
		parsed, err := strconv.Atoi(digits)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// ParseCurrency normalizes a decoded JSON value into a monetary amount.
// Strings may use either "," or "." as the decimal separator with the
// other as thousands separator; whichever appears last is treated as the
// decimal point. Currency symbols and whitespace are stripped first.
func ParseCurrency(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}

		sanitized := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
				return r
			}
			return -1
		}, trimmed)
		if sanitized == "" {
			return 0, false
		}

		lastComma := strings.LastIndex(sanitized, ",")
		lastDot := strings.LastIndex(sanitized, ".")

		switch {
		case lastComma > -1 && lastDot > -1:
			if lastComma > lastDot {
				sanitized = strings.ReplaceAll(sanitized, ".", "")
				sanitized = strings.Replace(sanitized, ",", ".", 1)
			} else {
				sanitized = strings.ReplaceAll(sanitized, ",", "")
			}
		case lastComma > -1:
			sanitized = strings.Replace(sanitized, ",", ".", 1)
		}

		parsed, err := strconv.ParseFloat(sanitized, 64)
		if err != nil || math.IsInf(parsed, 0) {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// FormatCurrency re-formats a stored numeric string to exactly two decimal
// places, falling back to "0.00" for empty or malformed input.
func FormatCurrency(value string) string {
	if value == "" {
		return "0.00"
	}

	numeric, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(numeric, 0) || math.IsNaN(numeric) {
		return "0.00"
	}

	return FormatAmount(numeric)
}

// FormatAmount renders a monetary amount with two decimal places.
func FormatAmount(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

// DigitsOnly strips every non-digit character from s.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
