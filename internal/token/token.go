// Package token issues and verifies the signed, self-contained session tokens
// handed out on login. Verification needs only the signing key and a clock.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuerName = "storefront"

var (
	// ErrInvalidToken is returned for malformed tokens or bad signatures
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a correctly signed token is past its expiry
	ErrExpiredToken = errors.New("token expired")
	// ErrEmptySecret is returned when an Issuer is built without a signing key
	ErrEmptySecret = errors.New("signing secret is empty")
)

// Token is a signed assertion plus its expiry, as returned to clients.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Verifier resolves a presented token to a user ID.
type Verifier interface {
	Verify(token string) (string, error)
}

// Issuer signs and verifies HS256 tokens with a process-wide key. It holds no
// mutable state and is safe for concurrent use.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer builds an Issuer. The secret is copied so later mutation by the
// caller cannot affect signing.
func NewIssuer(secret []byte, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	i := &Issuer{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue produces a token binding userID to now+ttl.
func (i *Issuer) Issue(userID string, ttl time.Duration) (Token, error) {
	if userID == "" {
		return Token{}, fmt.Errorf("issue token: empty user id")
	}

	now := i.now()
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    issuerName,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{Value: signed, ExpiresAt: expiresAt.UTC().Truncate(time.Second)}, nil
}

// Verify checks signature and expiry and returns the embedded user ID.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims.Subject, nil
}
