package core

import (
	"errors"
	"math/rand"
	"strings"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultMaxAttempts bounds the retry loop; with a sparse key space a single
// draw almost always suffices, so hitting the bound means misconfiguration
// (key space too small for the live population).
const DefaultMaxAttempts = 100

var ErrCodeSpaceExhausted = errors.New("code space exhausted")

// GenerateCode draws random uppercase codes of the given length until taken
// reports a free one, or fails with ErrCodeSpaceExhausted after maxAttempts.
func GenerateCode(length, maxAttempts int, taken func(string) (bool, error)) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for i := 0; i < maxAttempts; i++ {
		var b strings.Builder
		b.Grow(length)
		for j := 0; j < length; j++ {
			b.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
		}
		code := b.String()
		inUse, err := taken(code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
