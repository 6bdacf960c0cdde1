package triprepo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tripsync/tripsync-api/internal/domain"
	"github.com/tripsync/tripsync-api/internal/ports/out/triprepo"
	"github.com/tripsync/tripsync-api/internal/ports/out/userrepo"
)

// UserLookup resolves the user rows that trips reference.
type UserLookup interface {
	GetByID(ctx context.Context, id domain.UserID) (domain.User, error)
}

// Repo is an in-memory implementation of triprepo.Repository.
// It is safe for concurrent use.
//
// Creator and participant references are checked against users the same way a foreign key would.
type Repo struct {
	mu    sync.RWMutex
	users UserLookup

	byID    map[domain.TripID]domain.Trip
	members map[domain.TripID]map[domain.UserID]time.Time
}

func NewRepo(users UserLookup) *Repo {
	return &Repo{
		users:   users,
		byID:    make(map[domain.TripID]domain.Trip),
		members: make(map[domain.TripID]map[domain.UserID]time.Time),
	}
}

func (r *Repo) Create(ctx context.Context, t domain.Trip) error {
	if t.ID == "" {
		return triprepo.ErrAlreadyExists
	}
	if err := r.requireUser(ctx, t.CreatedBy); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[t.ID]; ok {
		return triprepo.ErrAlreadyExists
	}
	r.byID[t.ID] = cloneTrip(t)
	return nil
}

func (r *Repo) Save(ctx context.Context, t domain.Trip) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[t.ID]
	if !ok {
		return triprepo.ErrNotFound
	}
	t.CreatedBy = existing.CreatedBy
	t.CreatedAt = existing.CreatedAt
	r.byID[t.ID] = cloneTrip(t)
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.TripID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return triprepo.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.members, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TripID) (domain.TripDetails, error) {
	r.mu.RLock()
	t, ok := r.byID[id]
	joined := copyMembers(r.members[id])
	r.mu.RUnlock()
	if !ok {
		return domain.TripDetails{}, triprepo.ErrNotFound
	}

	out := domain.TripDetails{Trip: cloneTrip(t)}
	if creator, err := r.users.GetByID(ctx, t.CreatedBy); err == nil {
		out.CreatorName = creator.FullName()
		out.CreatorEmail = creator.Email
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return domain.TripDetails{}, err
	}
	ps, err := r.participantsFrom(ctx, joined)
	if err != nil {
		return domain.TripDetails{}, err
	}
	out.Participants = ps
	return out, nil
}

func (r *Repo) ListForUser(ctx context.Context, userID domain.UserID) ([]domain.TripSummary, error) {
	r.mu.RLock()
	trips := make([]domain.Trip, 0)
	for id, t := range r.byID {
		_, joined := r.members[id][userID]
		if t.CreatedBy == userID || joined {
			trips = append(trips, cloneTrip(t))
		}
	}
	r.mu.RUnlock()

	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].CreatedAt.Equal(trips[j].CreatedAt) {
			return trips[i].CreatedAt.After(trips[j].CreatedAt)
		}
		return trips[i].ID < trips[j].ID
	})

	out := make([]domain.TripSummary, 0, len(trips))
	for _, t := range trips {
		s := domain.TripSummary{Trip: t}
		if creator, err := r.users.GetByID(ctx, t.CreatedBy); err == nil {
			s.CreatorName = creator.FullName()
		} else if !errors.Is(err, userrepo.ErrNotFound) {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Repo) AddParticipant(ctx context.Context, tripID domain.TripID, userID domain.UserID, joinedAt time.Time) (bool, error) {
	if err := r.requireUser(ctx, userID); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[tripID]; !ok {
		return false, triprepo.ErrNotFound
	}
	set := r.members[tripID]
	if set == nil {
		set = make(map[domain.UserID]time.Time)
		r.members[tripID] = set
	}
	if _, exists := set[userID]; exists {
		return false, nil
	}
	set[userID] = joinedAt.UTC()
	return true, nil
}

func (r *Repo) RemoveParticipant(ctx context.Context, tripID domain.TripID, userID domain.UserID) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.members[tripID]
	if _, exists := set[userID]; !exists {
		return false, nil
	}
	delete(set, userID)
	return true, nil
}

func (r *Repo) ListParticipants(ctx context.Context, tripID domain.TripID) ([]domain.Participant, error) {
	r.mu.RLock()
	joined := copyMembers(r.members[tripID])
	r.mu.RUnlock()
	return r.participantsFrom(ctx, joined)
}

func (r *Repo) DeleteByCreator(ctx context.Context, userID domain.UserID) (int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, t := range r.byID {
		if t.CreatedBy == userID {
			delete(r.byID, id)
			delete(r.members, id)
			n++
		}
	}
	return n, nil
}

func (r *Repo) RemoveUserFromAll(ctx context.Context, userID domain.UserID) (int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, set := range r.members {
		if _, ok := set[userID]; ok {
			delete(set, userID)
			n++
		}
	}
	return n, nil
}

func (r *Repo) requireUser(ctx context.Context, id domain.UserID) error {
	if _, err := r.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return triprepo.ErrUserNotFound
		}
		return err
	}
	return nil
}

func (r *Repo) participantsFrom(ctx context.Context, joined map[domain.UserID]time.Time) ([]domain.Participant, error) {
	out := make([]domain.Participant, 0, len(joined))
	for uid, at := range joined {
		u, err := r.users.GetByID(ctx, uid)
		if err != nil {
			if errors.Is(err, userrepo.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, domain.Participant{
			UserID:    uid,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			JoinedAt:  at,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func copyMembers(in map[domain.UserID]time.Time) map[domain.UserID]time.Time {
	out := make(map[domain.UserID]time.Time, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneTrip(t domain.Trip) domain.Trip {
	out := t
	if t.Description != nil {
		v := *t.Description
		out.Description = &v
	}
	if t.Budget != nil {
		v := *t.Budget
		out.Budget = &v
	}
	return out
}
