package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPIN = errors.New("invalid staff PIN")
	ErrWeakPIN    = errors.New("staff PIN must be at least 4 characters")
)

// PINVerifier checks the staff PIN that gates table verification. Only the
// bcrypt hash is held in memory; the plain PIN never leaves the request.
type PINVerifier struct {
	hash []byte
}

// NewPINVerifier creates a verifier from a bcrypt hash, typically loaded
// from the environment.
func NewPINVerifier(bcryptHash string) *PINVerifier {
	return &PINVerifier{hash: []byte(bcryptHash)}
}

// Verify compares the supplied PIN against the stored hash.
func (v *PINVerifier) Verify(pin string) error {
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(pin)); err != nil {
		return ErrInvalidPIN
	}
	return nil
}

// HashPIN produces a bcrypt hash for a new staff PIN. Used by deployment
// tooling to seed the environment.
func HashPIN(pin string) (string, error) {
	if len(pin) < 4 {
		return "", ErrWeakPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return string(hash), nil
}
