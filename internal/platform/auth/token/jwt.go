package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tripsync/tripsync-api/internal/domain"
	"github.com/tripsync/tripsync-api/internal/platform/config"
	"github.com/tripsync/tripsync-api/internal/ports/out/credentials"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service issues and verifies HS256 bearer tokens whose subject is the user id.
type Service struct {
	cfg    config.AuthConfig
	secret []byte
	clock  Clock
}

var _ credentials.TokenService = (*Service)(nil)

func New(cfg config.AuthConfig) *Service {
	return NewWithClock(cfg, nil)
}

func NewWithClock(cfg config.AuthConfig, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{cfg: cfg, secret: []byte(cfg.Secret), clock: clock}
}

func (s *Service) Issue(ctx context.Context, userID domain.UserID) (string, error) {
	_ = ctx
	if userID == "" {
		return "", errors.New("issue token: empty user id")
	}
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   string(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, exp and nbf (with the configured skew).
// Every failure is reported as credentials.ErrInvalidToken.
func (s *Service) Verify(ctx context.Context, raw string) (domain.UserID, error) {
	_ = ctx
	if raw == "" {
		return "", credentials.ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(s.cfg.ClockSkew),
		jwt.WithTimeFunc(s.clock.Now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", credentials.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", credentials.ErrInvalidToken
	}
	return domain.UserID(claims.Subject), nil
}
