// Package password hashes and verifies user credentials.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor applied to new hashes.
const DefaultCost = 12

// Hasher hashes plaintext credentials and verifies candidates against
// stored hashes.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) bool
}

// BcryptHasher is the production Hasher backed by bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the default work factor.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: DefaultCost}
}

// WithCost overrides the work factor, for faster tests.
func (h *BcryptHasher) WithCost(cost int) *BcryptHasher {
	if h == nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return h
	}
	h.cost = cost
	return h
}

// Hash returns the bcrypt hash of plaintext.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash.
func (h *BcryptHasher) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
