package idempotency

import (
	"testing"

	"github.com/tripsync/tripsync-api/internal/adapters/contracttest"
	idempotencyport "github.com/tripsync/tripsync-api/internal/ports/out/idempotency"
)

func TestContract_IdempotencyStore(t *testing.T) {
	contracttest.RunIdempotencyStore(t, func(t *testing.T) (idempotencyport.Store, func()) {
		t.Helper()
		return NewStore(), nil
	})
}
