// Package knol fingerprints card content so imports can recognise cards
// that already exist.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize joins front and back after cleaning each part: line endings
// are normalized, surrounding whitespace trimmed and letters lowercased.
func Normalize(front, back string) string {
	normalizePart := func(part string) string {
		p := strings.ReplaceAll(part, "\r\n", "\n")
		return strings.ToLower(strings.TrimSpace(p))
	}

	// The newline keeps "ab"+"c" apart from "a"+"bc".
	return normalizePart(front) + "\n" + normalizePart(back)
}

// Hash returns the hex SHA-256 of the normalized content.
func Hash(front, back string) string {
	sum := sha256.Sum256([]byte(Normalize(front, back)))
	return fmt.Sprintf("%x", sum)
}

// Set is a collection of fingerprints.
type Set map[string]struct{}

// Add records the fingerprint of front/back and reports whether it was new.
func (s Set) Add(front, back string) bool {
	h := Hash(front, back)
	if _, ok := s[h]; ok {
		return false
	}
	s[h] = struct{}{}
	return true
}
