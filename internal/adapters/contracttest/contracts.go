package contracttest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tripsync/tripsync-api/internal/domain"
	idempotencyport "github.com/tripsync/tripsync-api/internal/ports/out/idempotency"
	triprepoport "github.com/tripsync/tripsync-api/internal/ports/out/triprepo"
	userrepoport "github.com/tripsync/tripsync-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

type UserRepoFactory func(t *testing.T) (userrepoport.Repository, CleanupFunc)
type TripRepoFactory func(t *testing.T, users userrepoport.Repository) (triprepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

// uniqueEmail keeps suites independent when they share one database.
func uniqueEmail(local string) string {
	return local + "+" + uuid.NewString()[:8] + "@example.com"
}

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		UserID:   domain.UserID(uuid.NewString()),
		Method:   "POST",
		Route:    "/api/trips",
		BodyHash: "hash-abc",
	}
	if _, _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"trip":1}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, hash, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if hash != "hash-abc" || string(got.Body) != `{"trip":1}` || got.ContentType != "application/json" || got.StatusCode != 201 {
		t.Fatalf("unexpected record: hash=%q rec=%+v", hash, got)
	}

	// A different body under the same key still finds the slot and reports the stored hash.
	reused := fp
	reused.BodyHash = "hash-def"
	_, hash, ok, err = store.Get(ctx, reused)
	if err != nil || !ok || hash != "hash-abc" {
		t.Fatalf("expected stored hash for reused key, got ok=%v err=%v hash=%q", ok, err, hash)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"trip":2}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != `{"trip":2}` {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	phone := "+1 (555) 010-0000"
	aID := domain.UserID(uuid.NewString())
	aEmail := uniqueEmail("Alice")
	if err := repo.Create(ctx, domain.User{
		ID:           aID,
		Email:        aEmail,
		PasswordHash: "hash",
		FirstName:    "Alice",
		LastName:     "Johnson",
		PhoneNumber:  &phone,
		Role:         domain.RoleStudent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	got, err := repo.GetByID(ctx, aID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != aEmail || got.Role != domain.RoleStudent || got.PhoneNumber == nil || *got.PhoneNumber != phone {
		t.Fatalf("unexpected user: %#v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt=%v want=%v", got.CreatedAt, now)
	}

	// Email lookup and uniqueness are case-insensitive.
	byEmail, err := repo.GetByEmail(ctx, strings.ToUpper(aEmail))
	if err != nil || byEmail.ID != aID {
		t.Fatalf("GetByEmail: id=%q err=%v", byEmail.ID, err)
	}
	err = repo.Create(ctx, domain.User{
		ID:        domain.UserID(uuid.NewString()),
		Email:     strings.ToUpper(aEmail),
		FirstName: "Alice",
		LastName:  "Two",
		Role:      domain.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if !errors.Is(err, userrepoport.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}

	// Update is a full-record write.
	later := now.Add(time.Hour)
	got.FirstName = "Alicia"
	got.PhoneNumber = nil
	got.UpdatedAt = later
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, err := repo.GetByID(ctx, aID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if updated.FirstName != "Alicia" || updated.PhoneNumber != nil || !updated.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected updated user: %#v", updated)
	}
	if err := repo.Update(ctx, domain.User{ID: domain.UserID(uuid.NewString()), Email: uniqueEmail("ghost")}); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("Update missing: expected ErrNotFound, got %v", err)
	}

	bID := domain.UserID(uuid.NewString())
	if err := repo.Create(ctx, domain.User{
		ID:        bID,
		Email:     uniqueEmail("bob"),
		FirstName: "Bob",
		LastName:  "Driver",
		Role:      domain.RoleDriver,
		CreatedAt: now.Add(time.Minute),
		UpdatedAt: now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("Create b: %v", err)
	}
	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	ia, ib := indexOfUser(all, aID), indexOfUser(all, bID)
	if ia < 0 || ib < 0 || ia > ib {
		t.Fatalf("unexpected list ordering: a=%d b=%d", ia, ib)
	}
	n, err := repo.Count(ctx)
	if err != nil || n < 2 {
		t.Fatalf("Count: n=%d err=%v", n, err)
	}

	if err := repo.Delete(ctx, bID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, bID); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, bID); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("Delete twice: expected ErrNotFound, got %v", err)
	}
}

// RunTripRepo exercises trips and participant memberships against seeded users.
func RunTripRepo(t *testing.T, newUserRepo UserRepoFactory, newTripRepo TripRepoFactory) {
	t.Helper()
	ctx := context.Background()

	users, uCleanup := newUserRepo(t)
	if uCleanup != nil {
		t.Cleanup(uCleanup)
	}
	trips, tCleanup := newTripRepo(t, users)
	if tCleanup != nil {
		t.Cleanup(tCleanup)
	}

	now := time.Unix(2000, 0).UTC()
	seedUser := func(first string) domain.UserID {
		t.Helper()
		id := domain.UserID(uuid.NewString())
		if err := users.Create(ctx, domain.User{
			ID:        id,
			Email:     uniqueEmail(first),
			FirstName: first,
			LastName:  "Tester",
			Role:      domain.RoleStudent,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("seed user %s: %v", first, err)
		}
		return id
	}
	creatorID := seedUser("Creator")
	guestID := seedUser("Guest")
	otherID := seedUser("Other")

	desc := "Beach week"
	budget := 800.0
	start := time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC)
	tripID := domain.TripID(uuid.NewString())
	if err := trips.Create(ctx, domain.Trip{
		ID:          tripID,
		Title:       "Weekend Getaway",
		Description: &desc,
		Destination: "Santa Cruz",
		StartDate:   start,
		EndDate:     end,
		Budget:      &budget,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		t.Fatalf("Create trip: %v", err)
	}
	if err := trips.Create(ctx, domain.Trip{ID: tripID, Title: "dup", Destination: "x", StartDate: start, EndDate: end, CreatedBy: creatorID, CreatedAt: now, UpdatedAt: now}); !errors.Is(err, triprepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate: expected ErrAlreadyExists, got %v", err)
	}
	if err := trips.Create(ctx, domain.Trip{ID: domain.TripID(uuid.NewString()), Title: "orphan", Destination: "x", StartDate: start, EndDate: end, CreatedBy: domain.UserID(uuid.NewString()), CreatedAt: now, UpdatedAt: now}); !errors.Is(err, triprepoport.ErrUserNotFound) {
		t.Fatalf("Create with unknown creator: expected ErrUserNotFound, got %v", err)
	}

	got, err := trips.GetByID(ctx, tripID)
	if err != nil {
		t.Fatalf("GetByID trip: %v", err)
	}
	if !got.Trip.StartDate.Equal(start) || !got.Trip.EndDate.Equal(end) || got.Trip.Budget == nil || *got.Trip.Budget != budget {
		t.Fatalf("unexpected trip fields: %#v", got.Trip)
	}
	if got.Trip.CreatedBy != creatorID || got.CreatorName != "Creator Tester" || got.CreatorEmail == "" {
		t.Fatalf("unexpected creator join: %#v", got)
	}
	if len(got.Participants) != 0 {
		t.Fatalf("expected no participants, got %#v", got.Participants)
	}
	if _, err := trips.GetByID(ctx, domain.TripID(uuid.NewString())); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("GetByID missing: expected ErrNotFound, got %v", err)
	}

	// Participant add is idempotent.
	inserted, err := trips.AddParticipant(ctx, tripID, guestID, now.Add(time.Minute))
	if err != nil || !inserted {
		t.Fatalf("AddParticipant: inserted=%v err=%v", inserted, err)
	}
	inserted, err = trips.AddParticipant(ctx, tripID, guestID, now.Add(2*time.Minute))
	if err != nil || inserted {
		t.Fatalf("AddParticipant again: inserted=%v err=%v", inserted, err)
	}
	if _, err := trips.AddParticipant(ctx, tripID, domain.UserID(uuid.NewString()), now); !errors.Is(err, triprepoport.ErrUserNotFound) {
		t.Fatalf("AddParticipant unknown user: expected ErrUserNotFound, got %v", err)
	}
	if _, err := trips.AddParticipant(ctx, domain.TripID(uuid.NewString()), guestID, now); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("AddParticipant unknown trip: expected ErrNotFound, got %v", err)
	}
	if _, err := trips.AddParticipant(ctx, tripID, otherID, now.Add(3*time.Minute)); err != nil {
		t.Fatalf("AddParticipant other: %v", err)
	}
	ps, err := trips.ListParticipants(ctx, tripID)
	if err != nil {
		t.Fatalf("ListParticipants: %v", err)
	}
	if len(ps) != 2 || ps[0].UserID != guestID || ps[1].UserID != otherID || ps[0].FirstName != "Guest" {
		t.Fatalf("unexpected participants: %#v", ps)
	}
	if !ps[0].JoinedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("JoinedAt=%v want=%v", ps[0].JoinedAt, now.Add(time.Minute))
	}

	// Visible to creator and participants, ordered newest first.
	laterTripID := domain.TripID(uuid.NewString())
	if err := trips.Create(ctx, domain.Trip{ID: laterTripID, Title: "Later", Destination: "Tahoe", StartDate: start, EndDate: end, CreatedBy: guestID, CreatedAt: now.Add(time.Hour), UpdatedAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("Create later trip: %v", err)
	}
	guestTrips, err := trips.ListForUser(ctx, guestID)
	if err != nil {
		t.Fatalf("ListForUser guest: %v", err)
	}
	if len(guestTrips) != 2 || guestTrips[0].ID != laterTripID || guestTrips[1].ID != tripID {
		t.Fatalf("unexpected guest trips: %#v", guestTrips)
	}
	if guestTrips[1].CreatorName != "Creator Tester" {
		t.Fatalf("CreatorName=%q", guestTrips[1].CreatorName)
	}
	creatorTrips, err := trips.ListForUser(ctx, creatorID)
	if err != nil || len(creatorTrips) != 1 {
		t.Fatalf("ListForUser creator: n=%d err=%v", len(creatorTrips), err)
	}

	// Remove reports whether the membership existed.
	removed, err := trips.RemoveParticipant(ctx, tripID, otherID)
	if err != nil || !removed {
		t.Fatalf("RemoveParticipant: removed=%v err=%v", removed, err)
	}
	removed, err = trips.RemoveParticipant(ctx, tripID, otherID)
	if err != nil || removed {
		t.Fatalf("RemoveParticipant again: removed=%v err=%v", removed, err)
	}
	if others, _ := trips.ListForUser(ctx, otherID); len(others) != 0 {
		t.Fatalf("expected no trips for removed participant, got %#v", others)
	}

	// Any budget that passes domain.CheckBudget comes back unchanged.
	for _, b := range []float64{0.01, 800.55, 1234567.89, domain.MaxBudget} {
		if err := domain.CheckBudget(b); err != nil {
			t.Fatalf("CheckBudget(%v): %v", b, err)
		}
		v := b
		got.Trip.Budget = &v
		if err := trips.Save(ctx, got.Trip); err != nil {
			t.Fatalf("Save budget %v: %v", b, err)
		}
		reread, err := trips.GetByID(ctx, tripID)
		if err != nil {
			t.Fatalf("GetByID after budget %v: %v", b, err)
		}
		if reread.Trip.Budget == nil || *reread.Trip.Budget != b {
			t.Fatalf("budget=%v want=%v", reread.Trip.Budget, b)
		}
	}

	// Save overwrites mutable fields and can clear optional ones.
	got.Trip.Title = "Long Weekend"
	got.Trip.Description = nil
	got.Trip.Budget = nil
	got.Trip.UpdatedAt = now.Add(2 * time.Hour)
	if err := trips.Save(ctx, got.Trip); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved, err := trips.GetByID(ctx, tripID)
	if err != nil {
		t.Fatalf("GetByID after save: %v", err)
	}
	if saved.Trip.Title != "Long Weekend" || saved.Trip.Description != nil || saved.Trip.Budget != nil {
		t.Fatalf("unexpected saved trip: %#v", saved.Trip)
	}
	if err := trips.Save(ctx, domain.Trip{ID: domain.TripID(uuid.NewString()), Title: "x", Destination: "y", StartDate: start, EndDate: end}); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("Save missing: expected ErrNotFound, got %v", err)
	}

	// Account deletion helpers.
	n, err := trips.RemoveUserFromAll(ctx, guestID)
	if err != nil || n != 1 {
		t.Fatalf("RemoveUserFromAll: n=%d err=%v", n, err)
	}
	n, err = trips.DeleteByCreator(ctx, guestID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteByCreator: n=%d err=%v", n, err)
	}
	if _, err := trips.GetByID(ctx, laterTripID); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("expected later trip deleted, got %v", err)
	}

	if err := trips.Delete(ctx, tripID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := trips.Delete(ctx, tripID); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("Delete twice: expected ErrNotFound, got %v", err)
	}
}

func indexOfUser(us []domain.User, id domain.UserID) int {
	for i, u := range us {
		if u.ID == id {
			return i
		}
	}
	return -1
}
