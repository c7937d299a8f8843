package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/port"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/config"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/logger"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/security"
)

var (
	// ErrInvalidSessionToken indicates the token is malformed or its signature does not verify.
	ErrInvalidSessionToken = errors.New("invalid session token")
	// ErrExpiredSessionToken indicates the token's embedded expiry has passed.
	ErrExpiredSessionToken = errors.New("session token expired")
	// ErrRevokedSessionToken indicates the token was revoked ahead of its expiry.
	ErrRevokedSessionToken = errors.New("session token revoked")
)

// TokenService issues, verifies, and revokes bearer session tokens. Tokens
// are stateless; only revocations are stored, in a TTL-bounded denylist.
type TokenService struct {
	cfg         *config.AppConfig
	signer      *security.TokenSigner
	revocations port.RevocationStore
	logger      *zap.Logger
	now         func() time.Time
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(cfg *config.AppConfig, signer *security.TokenSigner, revocations port.RevocationStore, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &TokenService{
		cfg:         cfg,
		signer:      signer,
		revocations: revocations,
		logger:      logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *TokenService) WithClock(clock func() time.Time) *TokenService {
	if clock != nil {
		s.now = clock
		s.signer.WithClock(clock)
	}
	return s
}

// IssuedToken pairs a signed session token with its validity window.
type IssuedToken struct {
	Token     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue produces a signed token for the subject with an absolute expiry of
// now plus the configured TTL. No server-side state is written.
func (s *TokenService) Issue(_ context.Context, subject string) (*IssuedToken, error) {
	token, claims, err := s.signer.Sign(subject, s.tokenTTL())
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	return &IssuedToken{
		Token:     token,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify returns the token's subject when the token is signature-valid,
// unexpired, and not revoked. The denylist is consulted before the signature
// is parsed; a revoked token must fail even while cryptographically valid.
func (s *TokenService) Verify(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidSessionToken
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, security.HashToken(token))
		if err != nil {
			// Denylist read failures degrade to signature and expiry checks.
			s.logger.Warn("revocation check failed", zap.Error(err))
		} else if revoked {
			return "", ErrRevokedSessionToken
		}
	}

	claims, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredSessionToken
		}
		return "", ErrInvalidSessionToken
	}

	return claims.Subject, nil
}

// Revoke denylists the token until it would have expired naturally. The
// supplied TTL is raised to the token's remaining lifetime when shorter, so a
// revocation entry can never lapse while the token it covers is still valid.
// Store failure propagates: a logout must not silently no-op.
func (s *TokenService) Revoke(ctx context.Context, token string, ttl time.Duration, reason string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidSessionToken
	}
	if s.revocations == nil {
		return errors.New("revocation store not configured")
	}

	if ttl <= 0 {
		ttl = s.revocationTTL()
	}
	if expiresAt, err := s.signer.ExpiryOf(token); err == nil {
		if remaining := expiresAt.Sub(s.now()); remaining > ttl {
			ttl = remaining
		}
	}

	if err := s.revocations.MarkRevoked(ctx, security.HashToken(token), reason, ttl); err != nil {
		return fmt.Errorf("mark token revoked: %w", err)
	}

	s.logger.Info("session token revoked",
		zap.String("token", logger.MaskToken(token)),
		zap.String("reason", reason),
		zap.Duration("ttl", ttl),
	)
	return nil
}

func (s *TokenService) tokenTTL() time.Duration {
	if s.cfg != nil && s.cfg.Auth.TokenTTL > 0 {
		return s.cfg.Auth.TokenTTL
	}
	return 30 * time.Minute
}

func (s *TokenService) revocationTTL() time.Duration {
	if s.cfg != nil && s.cfg.Auth.RevocationTTL > 0 {
		return s.cfg.Auth.RevocationTTL
	}
	return time.Hour
}
