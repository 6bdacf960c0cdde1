package userrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tripsync/tripsync-api/internal/domain"
	"github.com/tripsync/tripsync-api/internal/ports/out/userrepo"
)

// Repo is an in-memory implementation of userrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID      map[domain.UserID]domain.User
	idByEmail map[string]domain.UserID
}

func NewRepo() *Repo {
	return &Repo{
		byID:      make(map[domain.UserID]domain.User),
		idByEmail: make(map[string]domain.UserID),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repo) Create(ctx context.Context, u domain.User) error {
	_ = ctx
	if u.ID == "" {
		return userrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; ok {
		return userrepo.ErrAlreadyExists
	}
	key := emailKey(u.Email)
	if _, ok := r.idByEmail[key]; ok {
		return userrepo.ErrEmailAlreadyExists
	}

	r.byID[u.ID] = cloneUser(u)
	r.idByEmail[key] = u.ID
	return nil
}

func (r *Repo) Update(ctx context.Context, u domain.User) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[u.ID]
	if !ok {
		return userrepo.ErrNotFound
	}
	oldKey, newKey := emailKey(existing.Email), emailKey(u.Email)
	if oldKey != newKey {
		if owner, taken := r.idByEmail[newKey]; taken && owner != u.ID {
			return userrepo.ErrEmailAlreadyExists
		}
		delete(r.idByEmail, oldKey)
		r.idByEmail[newKey] = u.ID
	}
	// CreatedAt is immutable.
	u.CreatedAt = existing.CreatedAt
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.UserID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return userrepo.ErrNotFound
	}
	delete(r.idByEmail, emailKey(existing.Email))
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, userrepo.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByEmail[emailKey(email)]
	if !ok {
		return domain.User{}, userrepo.ErrNotFound
	}
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, userrepo.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func cloneUser(u domain.User) domain.User {
	out := u
	out.PhoneNumber = cloneStringPtr(u.PhoneNumber)
	out.StudentID = cloneStringPtr(u.StudentID)
	out.LicenseNumber = cloneStringPtr(u.LicenseNumber)
	out.VehicleNumber = cloneStringPtr(u.VehicleNumber)
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
