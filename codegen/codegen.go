// Package codegen produces the short codes handed out in place of long URLs.
// Generators should be safe for concurrent use.
package codegen

import (
	"crypto/rand"
	"errors"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// rejectAbove is the largest multiple of len(alphabet) that fits in a byte.
// Random bytes at or above it are discarded so that every symbol is drawn
// with equal probability; a plain modulo map would over-represent the first
// 256 mod 62 = 8 symbols.
const rejectAbove = byte(len(alphabet) * (256 / len(alphabet)))

// Generator generates candidate short codes. A generator has no knowledge
// of which codes are already taken; collision handling belongs to the caller.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate(length int) (string, error)
}

// base62Generator implements Generator over the 62-symbol alphanumeric alphabet.
// It is safe for concurrent use.
type base62Generator struct{}

// NewBase62 returns a new base62 code generator.
func NewBase62() Generator {
	return &base62Generator{}
}

// Generate returns an unbiased random base62 string of the given length.
func (g *base62Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= rejectAbove {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				return string(out), nil
			}
		}
	}
}
