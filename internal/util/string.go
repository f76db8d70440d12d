package util

import (
	"strings"
	"unicode/utf16"
)

// Normalize performs basic string normalization (lowercase + trim)
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Contains checks if a string slice contains a specific item
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// ContainsAll reports whether s contains every needle.
func ContainsAll(s string, needles []string) bool {
	for _, n := range needles {
		if !strings.Contains(s, n) {
			return false
		}
	}
	return true
}

// ContainsAny reports whether s contains at least one needle. An empty
// needle list matches.
func ContainsAny(s string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// UTF16Len is the length of s in UTF-16 code units, the unit mention spans
// are expressed in.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// UTF16Index returns the UTF-16 offset of the first occurrence of substr in
// s, or -1.
func UTF16Index(s, substr string) int {
	i := strings.Index(s, substr)
	if i < 0 {
		return -1
	}
	return UTF16Len(s[:i])
}
