package brt

import (
	"strconv"
	"strings"
)

// parseDecimal parses a user-supplied decimal, accepting the Italian
// comma-decimal convention. Missing or unparseable values default to 0.
func parseDecimal(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseCount parses a parcel count, defaulting to and flooring at 1.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// firstNonEmpty returns the first string whose trimmed value is non-empty.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// stringField reads a string field from a decoded object, trying the given
// keys in order. Numbers are rendered without a decimal tail when whole.
func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			if v == float64(int64(v)) {
				return strconv.FormatInt(int64(v), 10)
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// floatField reads a numeric field from a decoded object, accepting both
// JSON numbers and numeric strings (comma decimals included). The second
// return reports whether any of the keys held a usable value.
func floatField(obj map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case float64:
			return v, true
		case string:
			s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
