package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	argon2ID              = "argon2id"
)

var errInvalidEncoding = errors.New("password: invalid argon2id encoding")

// Config tunes the argon2id parameters. Memory is in KiB.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Config returns parameters suitable for interactive logins.
func DefaultArgon2Config() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes passwords with argon2id and encodes them in PHC format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
type Argon2 struct {
	config Config
}

type phcParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// NewArgon2 validates cfg and returns an argon2id hasher. A zero Config selects
// [DefaultArgon2Config].
func NewArgon2(cfg Config) (*Argon2, error) {
	if cfg == (Config{}) {
		cfg = DefaultArgon2Config()
	}
	if cfg.Memory < minMemoryKB {
		return nil, errors.New("password: argon2 memory must be >= 8192 KiB")
	}
	if cfg.Time < minTimeCost {
		return nil, errors.New("password: argon2 time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return nil, errors.New("password: argon2 parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return nil, errors.New("password: argon2 salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return nil, errors.New("password: argon2 key length must be >= 16")
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives an argon2id key with a fresh random salt.
func (a *Argon2) Hash(password string) (string, error) {
	// Raw bytes are hashed as given, without Unicode normalization.
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("password: read salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2ID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters stored in encoded and compares
// in constant time. Malformed encodings report false.
func (a *Argon2) Verify(password, encoded string) bool {
	p, err := decodePHC(encoded)
	if err != nil {
		return false
	}

	key := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters than
// the hasher's current configuration.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	p, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}

	switch {
	case a.config.Memory > p.memory,
		a.config.Time > p.time,
		a.config.Parallelism > p.parallelism,
		a.config.KeyLength != uint32(len(p.key)):
		return true, nil
	}
	return false, nil
}

func decodePHC(encoded string) (*phcParams, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != argon2ID {
		return nil, errInvalidEncoding
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, fmt.Errorf("password: unsupported argon2 version %q", parts[2])
	}

	p := &phcParams{}
	if err := p.parseCosts(parts[3]); err != nil {
		return nil, err
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) < int(minSaltLength) {
		return nil, errInvalidEncoding
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, errInvalidEncoding
	}
	return p, nil
}

func (p *phcParams) parseCosts(section string) error {
	var seen int
	for _, pair := range strings.Split(section, ",") {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return errInvalidEncoding
		}
		switch name {
		case "m":
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || uint32(v) < minMemoryKB {
				return errInvalidEncoding
			}
			p.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || uint32(v) < minTimeCost {
				return errInvalidEncoding
			}
			p.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(raw, 10, 8)
			if err != nil || uint8(v) < minParallelism {
				return errInvalidEncoding
			}
			p.parallelism = uint8(v)
		default:
			return errInvalidEncoding
		}
		seen++
	}
	if seen != 3 {
		return errInvalidEncoding
	}
	return nil
}
