package idempotency

import (
	"context"
	"time"

	"github.com/tripsync/tripsync-api/internal/domain"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies a request for replay purposes: key + user + route + request body hash.
// Route is the HTTP method plus the path template (e.g. "POST /api/trips").
type Fingerprint struct {
	Key      Key
	UserID   domain.UserID
	Method   string
	Route    string
	BodyHash string
}

// Record is the stored response replayed for a duplicate request.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records.
//
// Get matches on every Fingerprint field except BodyHash and returns the stored BodyHash
// alongside the record, so callers can tell a replay from a key reused with a different body.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, string, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
