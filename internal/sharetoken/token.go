// Package sharetoken manages the unguessable tokens behind public
// calendar URLs: issuance, cached resolution and rotation.
package sharetoken

import (
	"crypto/rand"
	"fmt"
)

// TokenLength is the character count of an issued token. With a 64-char
// alphabet each token carries 72 bits of entropy.
const TokenLength = 12

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Issue returns a fresh URL-safe share token.
func Issue() (string, error) {
	buf := make([]byte, TokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("issue share token: %w", err)
	}
	for i, b := range buf {
		// len(alphabet) is a power of two, so masking stays uniform.
		buf[i] = alphabet[b&63]
	}
	return string(buf), nil
}

// Valid reports whether s is syntactically a share token. It says
// nothing about whether any calendar currently bears it.
func Valid(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
