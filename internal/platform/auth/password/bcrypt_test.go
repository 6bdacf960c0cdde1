package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tripsync/tripsync-api/internal/ports/out/credentials"
)

func TestHasher_HashAndCompare(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "password123" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash %q", hash)
	}
	if err := h.Compare(hash, "password123"); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if err := h.Compare(hash, "password124"); !errors.Is(err, credentials.ErrPasswordMismatch) {
		t.Fatalf("err=%v want=%v", err, credentials.ErrPasswordMismatch)
	}
}

func TestHasher_CompareGarbageHash(t *testing.T) {
	t.Parallel()

	err := NewHasher(bcrypt.MinCost).Compare("not-a-bcrypt-hash", "password123")
	if !errors.Is(err, credentials.ErrPasswordMismatch) {
		t.Fatalf("err=%v want=%v", err, credentials.ErrPasswordMismatch)
	}
}

func TestNewHasher_OutOfRangeCostUsesDefault(t *testing.T) {
	t.Parallel()

	if got := NewHasher(99).cost; got != DefaultCost {
		t.Fatalf("cost=%d want=%d", got, DefaultCost)
	}
	if got := NewHasher(0).cost; got != DefaultCost {
		t.Fatalf("cost=%d want=%d", got, DefaultCost)
	}
}
