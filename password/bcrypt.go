package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxBcryptBytes is the input limit of the bcrypt key schedule.
const maxBcryptBytes = 72

// Bcrypt hashes passwords with bcrypt at a fixed cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher. A zero cost selects bcrypt.DefaultCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password: bcrypt cost must be in [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

// Cost reports the configured work factor.
func (b *Bcrypt) Cost() int {
	return b.cost
}

// Hash returns a bcrypt hash with a fresh random salt, so repeated calls on the
// same input never return the same string.
func (b *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxBcryptBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("password: bcrypt hash: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches encoded. Malformed hashes report false.
func (b *Bcrypt) Verify(password, encoded string) bool {
	if encoded == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	return err == nil
}

// NeedsUpgrade reports whether encoded was produced with a lower cost than the
// hasher's current one.
func (b *Bcrypt) NeedsUpgrade(encoded string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil {
		if errors.Is(err, bcrypt.ErrHashTooShort) {
			return false, errors.New("password: invalid bcrypt hash")
		}
		return false, fmt.Errorf("password: %w", err)
	}
	return cost < b.cost, nil
}
