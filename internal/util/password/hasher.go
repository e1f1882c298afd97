// Package password hashes and verifies user passwords.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the longest password bcrypt accepts, in bytes.
const MaxLength = 72

// Hasher produces salted bcrypt hashes. The zero value uses bcrypt.DefaultCost.
type Hasher struct {
	Cost int
}

// Hash returns the salted hash of plain, ready to be stored.
func (h Hasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("generate password hash: %w", err)
	}

	return string(hash), nil
}

// Check reports whether plain matches a hash produced by Hash.
func Check(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
