package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSignatureInvalid reports a token whose signature does not verify
	// under the configured secret and algorithm.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrMalformed reports a token that is not a structurally valid claim set.
	ErrMalformed = errors.New("token malformed")
	// ErrExpired reports a correctly signed token past its exp instant.
	ErrExpired = errors.New("token expired")
)

// Method is an HMAC signing algorithm name.
type Method string

const (
	// MethodHS256 is HMAC-SHA256, the default.
	MethodHS256 Method = "HS256"
	// MethodHS384 is HMAC-SHA384.
	MethodHS384 Method = "HS384"
	// MethodHS512 is HMAC-SHA512.
	MethodHS512 Method = "HS512"
)

var signingMethods = map[Method]*jwt.SigningMethodHMAC{
	MethodHS256: jwt.SigningMethodHS256,
	MethodHS384: jwt.SigningMethodHS384,
	MethodHS512: jwt.SigningMethodHS512,
}

// ParseMethod resolves a case-insensitive algorithm name. Empty selects HS256.
func ParseMethod(name string) (Method, error) {
	if name == "" {
		return MethodHS256, nil
	}
	m := Method(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := signingMethods[m]; !ok {
		return "", fmt.Errorf("unsupported signing method %q", name)
	}
	return m, nil
}

// CodecConfig configures a [Codec]. Now defaults to time.Now.
type CodecConfig struct {
	Secret []byte
	Method Method
	Now    func() time.Time
}

// Codec signs and verifies [Claims].
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec validates cfg and returns a codec.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	name, err := ParseMethod(string(cfg.Method))
	if err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	c := &Codec{
		secret: append([]byte(nil), cfg.Secret...),
		method: signingMethods[name],
		now:    now,
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

// Method reports the configured signing algorithm.
func (c *Codec) Method() Method {
	return Method(c.method.Alg())
}

// Now reports the codec clock.
func (c *Codec) Now() time.Time {
	return c.now()
}

// Encode signs claims. The signature covers the whole claim set.
func (c *Codec) Encode(claims *Claims) (string, error) {
	if claims == nil || !claims.wellFormed() {
		return "", ErrMalformed
	}
	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return token, nil
}

// Decode verifies and parses token. The error, when non-nil, is one of
// ErrSignatureInvalid, ErrMalformed or ErrExpired.
func (c *Codec) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid || !claims.wellFormed() {
		return nil, ErrMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}
