package domain

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// CodeLength is the number of characters in an attendance code.
const CodeLength = 6

// CodeGenerator issues attendance codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// RandomCodes draws codes from crypto/rand in the base32 alphabet (A-Z, 2-7).
type RandomCodes struct{}

// Generate returns a fresh uppercase code of CodeLength characters.
func (RandomCodes) Generate() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)[:CodeLength], nil
}

// StaticCode always returns the same code.
type StaticCode string

// Generate returns the fixed code.
func (c StaticCode) Generate() (string, error) { return string(c), nil }

// codesMatch compares a submitted code against the issued one, ignoring case
// and surrounding whitespace.
func codesMatch(issued, submitted string) bool {
	return strings.EqualFold(issued, strings.TrimSpace(submitted))
}
