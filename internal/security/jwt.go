package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tazhibayda/auth-gateway/internal/domain"
)

type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and validates session tokens with one fixed algorithm.
type TokenService struct {
	method jwt.SigningMethod
	sign   any
	verify any
	kid    string
	now    func() time.Time
}

// NewHMAC builds a service for HS256, HS384 or HS512.
func NewHMAC(alg string, secret []byte) (*TokenService, error) {
	m, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported hmac algorithm %q", domain.ErrConfiguration, alg)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: signing secret is empty", domain.ErrConfiguration)
	}
	return &TokenService{method: m, sign: secret, verify: secret, now: time.Now}, nil
}

// NewRS256 signs with the key manager's active key.
func NewRS256(km *KeyManager) (*TokenService, error) {
	if km == nil || km.Active == nil {
		return nil, fmt.Errorf("%w: rs256 requires a private key", domain.ErrConfiguration)
	}
	return &TokenService{
		method: jwt.SigningMethodRS256,
		sign:   km.Active.Private,
		verify: km.Active.Public,
		kid:    km.Active.Kid,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source; tests use it to mint expired tokens.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

func (s *TokenService) Algorithm() string { return s.method.Alg() }

func (s *TokenService) Issue(subject, email string, ttl time.Duration) (string, error) {
	now := s.now()
	c := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(s.method, c)
	if s.kid != "" {
		t.Header["kid"] = s.kid
	}
	return t.SignedString(s.sign)
}

// Validate returns the claims of a well-formed, correctly signed, unexpired token
// that names a subject. Every failure wraps domain.ErrUnauthenticated.
func (s *TokenService) Validate(token string) (*Claims, error) {
	if token == "" {
		return nil, domain.ErrTokenMalformed
	}
	c := &Claims{}
	t, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (interface{}, error) {
		return s.verify, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil && t.Valid:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, domain.ErrTokenSignature
	default:
		return nil, domain.ErrTokenMalformed
	}
	if c.Subject == "" {
		return nil, domain.ErrTokenNoSubject
	}
	return c, nil
}
