package auth

import (
	"golang.org/x/crypto/bcrypt"

	"sahara/internal/domain/service"
)

// bcryptHasher is a concrete implementation of the PinHasher interface using bcrypt.
type bcryptHasher struct{}

// NewBcryptHasher is the constructor for bcryptHasher.
// It returns the implementation as a service.PinHasher interface.
func NewBcryptHasher() service.PinHasher {
	return &bcryptHasher{}
}

// Hash generates a salted hash from a plaintext PIN using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	return string(bytes), err
}

// Check compares a plaintext PIN with a bcrypt hash.
func (h *bcryptHasher) Check(pin, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	// err is nil if the PIN and hash match.
	return err == nil
}
