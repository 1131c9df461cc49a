// Package auth authenticates control frames exchanged by window processes. Each process
// mints one token at startup and only hands it out inside its dispatcher payload, so a
// frame carrying it was addressed by a window this process introduced itself to.
package auth

import (
	"crypto/subtle"
	"errors"

	"github.com/google/uuid"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

// Token is a per-process shared secret.
type Token string

func NewToken() Token {
	return Token(uuid.NewString())
}

// Validate compares in constant time. An empty token accepts nothing.
func (t Token) Validate(presented []byte) error {
	if t == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(t), presented) != 1 {
		return ErrUnauthorized
	}
	return nil
}
