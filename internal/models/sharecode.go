package models

import (
	"math/rand/v2"
	"strings"
)

const (
	// ShareCodeLength is the number of characters in a share code.
	ShareCodeLength = 6

	shareCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewShareCode draws a random 6-character code from [A-Z0-9].
// Uniqueness is expected but never checked.
func NewShareCode() string {
	var b strings.Builder
	b.Grow(ShareCodeLength)
	for range ShareCodeLength {
		b.WriteByte(shareCodeAlphabet[rand.IntN(len(shareCodeAlphabet))])
	}
	return b.String()
}

// NormalizeShareCode upper-cases user input and checks it is a well-formed code.
func NormalizeShareCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != ShareCodeLength {
		return "", ErrInvalidShareCode
	}
	for i := 0; i < len(c); i++ {
		if strings.IndexByte(shareCodeAlphabet, c[i]) < 0 {
			return "", ErrInvalidShareCode
		}
	}
	return c, nil
}
