package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tripsync/tripsync-api/internal/ports/out/credentials"
)

const DefaultCost = 12

// Hasher hashes passwords with bcrypt.
type Hasher struct {
	cost int
}

var _ credentials.PasswordHasher = Hasher{}

// NewHasher returns a bcrypt hasher. A cost outside bcrypt's accepted range falls back to DefaultCost.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (h Hasher) Compare(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return credentials.ErrPasswordMismatch
	default:
		// Corrupt or foreign hash formats never authenticate.
		return fmt.Errorf("%w: %v", credentials.ErrPasswordMismatch, err)
	}
}
