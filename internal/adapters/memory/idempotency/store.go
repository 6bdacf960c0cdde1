package idempotency

import (
	"context"
	"sync"

	"github.com/tripsync/tripsync-api/internal/ports/out/idempotency"
)

type entry struct {
	bodyHash string
	rec      idempotency.Record
}

// Store is an in-memory implementation of idempotency.Store.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	m  map[idempotency.Fingerprint]entry
}

func NewStore() *Store {
	return &Store{
		m: make(map[idempotency.Fingerprint]entry),
	}
}

// slot drops the body hash: one record per key, user and route.
func slot(fp idempotency.Fingerprint) idempotency.Fingerprint {
	fp.BodyHash = ""
	return fp
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, string, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.m[slot(fp)]
	if !ok {
		return idempotency.Record{}, "", false, nil
	}
	rec := e.rec
	rec.Body = append([]byte(nil), e.rec.Body...)
	return rec, e.bodyHash, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Body = append([]byte(nil), rec.Body...)
	s.m[slot(fp)] = entry{bodyHash: fp.BodyHash, rec: rec}
	return nil
}
