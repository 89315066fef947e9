// Package auth holds the credential primitives: bcrypt password hashing and
// the GitHub OAuth code exchange.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on a
// modern server.
const defaultCost = 12

// PasswordService provides one-way password hashing and verification.
// The stored hash is opaque to the rest of the system; nothing ever
// reverses it.
//
// It is a struct rather than free functions so the cost can be lowered in
// tests (bcrypt at cost 12 is deliberately slow).
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost. Do not use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext with bcrypt. The output embeds the salt and
// cost, so it can be stored as a single column and verified later without any
// extra state.
//
// bcrypt silently truncates input beyond 72 bytes; longer plaintexts are
// rejected here instead.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a plaintext password against a stored bcrypt hash.
// Returns nil on a match. The comparison is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
