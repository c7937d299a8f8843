package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

const defaultSessionTokenTTL = 30 * time.Minute

// SessionTokenClaims carries the subject and validity window of a session token.
type SessionTokenClaims struct {
	jwt.RegisteredClaims
}

// TokenSigner issues and parses HS256-signed session tokens. Tokens are
// stateless; nothing is stored server-side at issuance.
type TokenSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenSigner constructs a TokenSigner for the supplied shared secret.
func NewTokenSigner(secret, issuer string) (*TokenSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt: signing secret is required")
	}

	return &TokenSigner{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the signer clock for deterministic tests.
func (s *TokenSigner) WithClock(clock func() time.Time) *TokenSigner {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Sign produces a signed token for the subject with an absolute expiry of
// now + ttl.
func (s *TokenSigner) Sign(subject string, ttl time.Duration) (string, *SessionTokenClaims, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", nil, errors.New("jwt: subject is required")
	}
	if ttl <= 0 {
		ttl = defaultSessionTokenTTL
	}

	now := s.now()
	claims := &SessionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, claims, nil
}

// Parse verifies the signature and time claims and returns the embedded claims.
func (s *TokenSigner) Parse(token string) (*SessionTokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("jwt: token is required")
	}

	parserOptions := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(s.issuer))
	}

	claims := &SessionTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc, parserOptions...)
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}
	if parsed == nil || !parsed.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, jwt.ErrTokenInvalidSubject
	}

	return claims, nil
}

// ExpiryOf extracts the expiry of a signature-valid token without validating
// time claims. Used to size revocation TTLs for tokens that may already have
// expired.
func (s *TokenSigner) ExpiryOf(token string) (time.Time, error) {
	claims := &SessionTokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("jwt: parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("jwt: token carries no expiry")
	}

	return claims.ExpiresAt.Time, nil
}

func (s *TokenSigner) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return s.secret, nil
}
