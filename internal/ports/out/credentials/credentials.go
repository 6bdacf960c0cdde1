package credentials

import (
	"context"
	"errors"

	"github.com/tripsync/tripsync-api/internal/domain"
)

var (
	// ErrPasswordMismatch indicates the plaintext does not match the stored hash.
	ErrPasswordMismatch = errors.New("password mismatch")

	// ErrInvalidToken covers malformed, badly signed and expired bearer tokens alike.
	ErrInvalidToken = errors.New("invalid token")
)

// PasswordHasher hashes and checks user passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

// TokenIssuer mints bearer tokens for a user.
type TokenIssuer interface {
	Issue(ctx context.Context, userID domain.UserID) (string, error)
}

// TokenVerifier validates a bearer token and returns the user it was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.UserID, error)
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	TokenIssuer
	TokenVerifier
}
