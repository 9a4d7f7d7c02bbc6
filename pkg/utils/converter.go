package utils

import (
	"strconv"
	"strings"
)

// StringToInt converts a string to an integer with default value on error
func StringToInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return val
	}
	return defaultValue
}

// PositiveIntOr returns the parsed value when it is a positive integer, the
// default otherwise.
func PositiveIntOr(s string, defaultValue int) int {
	if val := StringToInt(s, defaultValue); val > 0 {
		return val
	}
	return defaultValue
}

// CapitalizeFirst upper-cases the first byte of an ASCII-leading string.
func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
