package password

import (
	"errors"
	"fmt"
	"strings"
)

// Algorithm names a supported password hashing scheme.
type Algorithm string

const (
	// AlgorithmBcrypt selects [Bcrypt]. It is the default.
	AlgorithmBcrypt Algorithm = "bcrypt"
	// AlgorithmArgon2id selects [Argon2].
	AlgorithmArgon2id Algorithm = "argon2id"
)

var (
	// ErrEmptyPassword is returned by Hash when the password is empty.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned by Hash when the password exceeds the scheme limit.
	ErrPasswordTooLong = errors.New("password too long")
)

// Hasher produces salted one-way password hashes and verifies candidates
// against them.
//
// Verify must not panic or error on malformed input; it reports false.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// Options selects and tunes a [Hasher] for [New].
type Options struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     Config
}

// New returns the Hasher named by opts.Algorithm. An empty algorithm selects bcrypt.
func New(opts Options) (Hasher, error) {
	switch Algorithm(strings.ToLower(string(opts.Algorithm))) {
	case "", AlgorithmBcrypt:
		return NewBcrypt(opts.BcryptCost)
	case AlgorithmArgon2id:
		return NewArgon2(opts.Argon2)
	default:
		return nil, fmt.Errorf("password: unsupported algorithm %q", opts.Algorithm)
	}
}
