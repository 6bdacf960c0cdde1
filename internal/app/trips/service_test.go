package trips_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	memclock "github.com/tripsync/tripsync-api/internal/adapters/memory/clock"
	memtriprepo "github.com/tripsync/tripsync-api/internal/adapters/memory/triprepo"
	memuserrepo "github.com/tripsync/tripsync-api/internal/adapters/memory/userrepo"
	"github.com/tripsync/tripsync-api/internal/app/access"
	"github.com/tripsync/tripsync-api/internal/app/apperr"
	"github.com/tripsync/tripsync-api/internal/app/trips"
	"github.com/tripsync/tripsync-api/internal/domain"
)

type fixture struct {
	svc   *trips.Service
	users *memuserrepo.Repo
	trips *memtriprepo.Repo
	clock *memclock.ManualClock
}

func newFixture(t *testing.T, userIDs ...domain.UserID) fixture {
	t.Helper()
	users := memuserrepo.NewRepo()
	now := time.Unix(100, 0).UTC()
	for _, id := range userIDs {
		if err := users.Create(context.Background(), domain.User{
			ID:        id,
			Email:     string(id) + "@example.com",
			FirstName: "User",
			LastName:  string(id),
			Role:      domain.RoleStudent,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	tripsRepo := memtriprepo.NewRepo(users)
	clk := memclock.NewManualClock(time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	return fixture{svc: trips.NewService(tripsRepo, clk), users: users, trips: tripsRepo, clock: clk}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekend(budget float64) trips.CreateTripInput {
	return trips.CreateTripInput{
		Title:       "Weekend Getaway",
		Destination: "Santa Cruz",
		StartDate:   date(2024, 8, 15),
		EndDate:     date(2024, 8, 17),
		Budget:      &budget,
	}
}

func requireAppError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperr.Error, got %T (%v)", err, err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("status/code=%d/%s want=%d/%s", ae.Status, ae.Code, status, code)
	}
}

func TestService_CreateThenGet_RoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice")
	f.svc.SetNewTripIDForTest(func() domain.TripID { return "t1" })

	created, err := f.svc.CreateTrip(context.Background(), "alice", weekend(800))
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if created.ID != "t1" || created.CreatedBy != "alice" || !created.CreatedAt.Equal(f.clock.Now()) {
		t.Fatalf("created=%+v", created)
	}

	got, err := f.svc.GetTrip(context.Background(), "alice", "t1")
	if err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	if got.Trip.Title != "Weekend Getaway" || !got.Trip.StartDate.Equal(date(2024, 8, 15)) || !got.Trip.EndDate.Equal(date(2024, 8, 17)) {
		t.Fatalf("trip=%+v", got.Trip)
	}
	if got.Trip.Budget == nil || *got.Trip.Budget != 800 {
		t.Fatalf("budget=%v", got.Trip.Budget)
	}
	if got.CreatorEmail != "alice@example.com" {
		t.Fatalf("creatorEmail=%q", got.CreatorEmail)
	}
}

func TestService_CreateTrip_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice")
	sameDay := weekend(100)
	sameDay.EndDate = sameDay.StartDate
	_, err := f.svc.CreateTrip(context.Background(), "alice", sameDay)
	requireAppError(t, err, http.StatusBadRequest, apperr.CodeValidation)

	negative := weekend(-5)
	_, err = f.svc.CreateTrip(context.Background(), "alice", negative)
	requireAppError(t, err, http.StatusBadRequest, apperr.CodeValidation)

	blank := weekend(10)
	blank.Title = "   "
	_, err = f.svc.CreateTrip(context.Background(), "alice", blank)
	requireAppError(t, err, http.StatusBadRequest, apperr.CodeValidation)
}

func TestService_CreateTrip_RejectsWhatTheStoreCannotKeep(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice")
	cases := map[string]struct {
		mutate func(*trips.CreateTripInput)
		field  string
	}{
		"padded short title":       {func(in *trips.CreateTripInput) { in.Title = "  ab  " }, "title"},
		"padded short destination": {func(in *trips.CreateTripInput) { in.Destination = " X " }, "destination"},
		"sub-cent budget":          {func(in *trips.CreateTripInput) { b := 800.555; in.Budget = &b }, "budget"},
		"oversized budget":         {func(in *trips.CreateTripInput) { b := 1e10; in.Budget = &b }, "budget"},
	}
	for name, tc := range cases {
		in := weekend(800)
		tc.mutate(&in)
		_, err := f.svc.CreateTrip(context.Background(), "alice", in)
		requireAppError(t, err, http.StatusBadRequest, apperr.CodeValidation)
		var ae *apperr.Error
		errors.As(err, &ae)
		if _, ok := ae.Details[tc.field]; !ok {
			t.Fatalf("%s: details=%v want field %q", name, ae.Details, tc.field)
		}
	}

	stored, err := f.svc.ListTrips(context.Background(), "alice")
	if err != nil || len(stored) != 0 {
		t.Fatalf("trips=%v err=%v want none stored", stored, err)
	}
}

func TestService_GetTrip_NotFoundVersusForbidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice", "bob")
	f.svc.SetNewTripIDForTest(func() domain.TripID { return "t1" })
	if _, err := f.svc.CreateTrip(context.Background(), "alice", weekend(800)); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	_, err := f.svc.GetTrip(context.Background(), "bob", "t1")
	requireAppError(t, err, http.StatusForbidden, access.CodeTripAccessDenied)

	_, err = f.svc.GetTrip(context.Background(), "bob", "missing")
	requireAppError(t, err, http.StatusNotFound, trips.CodeTripNotFound)

	if _, err := f.svc.AddParticipant(context.Background(), "alice", "t1", "bob"); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	if _, err := f.svc.GetTrip(context.Background(), "bob", "t1"); err != nil {
		t.Fatalf("participant GetTrip: %v", err)
	}
}

func TestService_NonCreatorCannotMutate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice", "bob", "carol")
	f.svc.SetNewTripIDForTest(func() domain.TripID { return "t1" })
	ctx := context.Background()
	if _, err := f.svc.CreateTrip(ctx, "alice", weekend(800)); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if _, err := f.svc.AddParticipant(ctx, "alice", "t1", "bob"); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}

	// bob participates, carol does not; neither may mutate.
	for _, u := range []domain.UserID{"bob", "carol"} {
		_, err := f.svc.UpdateTrip(ctx, u, "t1", trips.UpdateTripInput{Title: trips.Some("Hijacked")})
		requireAppError(t, err, http.StatusForbidden, access.CodeNotTripCreator)

		err = f.svc.DeleteTrip(ctx, u, "t1")
		requireAppError(t, err, http.StatusForbidden, access.CodeNotTripCreator)

		_, err = f.svc.AddParticipant(ctx, u, "t1", "carol")
		requireAppError(t, err, http.StatusForbidden, access.CodeNotTripCreator)

		_, err = f.svc.RemoveParticipant(ctx, u, "t1", "bob")
		requireAppError(t, err, http.StatusForbidden, access.CodeNotTripCreator)
	}

	got, err := f.svc.GetTrip(ctx, "alice", "t1")
	if err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	if got.Trip.Title != "Weekend Getaway" || len(got.Participants) != 1 || got.Participants[0].UserID != "bob" {
		t.Fatalf("trip changed by non-creator: %+v", got)
	}
}

func TestService_AddParticipant_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice", "bob")
	f.svc.SetNewTripIDForTest(func() domain.TripID { return "t1" })
	ctx := context.Background()
	if _, err := f.svc.CreateTrip(ctx, "alice", weekend(800)); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	first, err := f.svc.AddParticipant(ctx, "alice", "t1", "bob")
	if err != nil {
		t.Fatalf("first AddParticipant: %v", err)
	}
	f.clock.Advance(time.Hour)
	second, err := f.svc.AddParticipant(ctx, "alice", "t1", "bob")
	if err != nil {
		t.Fatalf("second AddParticipant: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("participants first=%d second=%d want=1", len(first), len(second))
	}
	if !second[0].JoinedAt.Equal(first[0].JoinedAt) {
		t.Fatalf("joinedAt moved: %v -> %v", first[0].JoinedAt, second[0].JoinedAt)
	}
}

func TestService_AddParticipant_Failures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice")
	f.svc.SetNewTripIDForTest(func() domain.TripID { return "t1" })
	ctx := context.Background()
	if _, err := f.svc.CreateTrip(ctx, "alice", weekend(800)); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	// Missing userId is reported before the trip is looked up.
	_, err := f.svc.AddParticipant(ctx, "alice", "missing-trip", "  ")
	requireAppError(t, err, http.StatusBadRequest, apperr.CodeMissingParameter)

	_, err = f.svc.AddParticipant(ctx, "alice", "missing-trip", "bob")
	requireAppError(t, err, http.StatusNotFound, trips.CodeTripNotFound)

	_, err = f.svc.AddParticipant(ctx, "alice", "t1", "ghost")
	requireAppError(t, err, http.StatusNotFound, trips.CodeUserNotFound)
}

func TestService_RemoveParticipant_NotParticipantLeavesListUnchanged(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice", "bob", "carol")
	f.svc.SetNewTripIDForTest(func() domain.TripID { return "t1" })
	ctx := context.Background()
	if _, err := f.svc.CreateTrip(ctx, "alice", weekend(800)); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if _, err := f.svc.AddParticipant(ctx, "alice", "t1", "bob"); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}

	_, err := f.svc.RemoveParticipant(ctx, "alice", "t1", "carol")
	requireAppError(t, err, http.StatusNotFound, trips.CodeParticipantNotFound)

	got, err := f.svc.GetTrip(ctx, "alice", "t1")
	if err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	if len(got.Participants) != 1 || got.Participants[0].UserID != "bob" {
		t.Fatalf("participants=%+v", got.Participants)
	}

	left, err := f.svc.RemoveParticipant(ctx, "alice", "t1", "bob")
	if err != nil {
		t.Fatalf("RemoveParticipant: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("participants after remove=%+v", left)
	}
}

func TestService_UpdateTrip_PartialFields(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice")
	f.svc.SetNewTripIDForTest(func() domain.TripID { return "t1" })
	ctx := context.Background()
	in := weekend(800)
	desc := "Surf and sun"
	in.Description = &desc
	if _, err := f.svc.CreateTrip(ctx, "alice", in); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	f.clock.Advance(time.Minute)

	updated, err := f.svc.UpdateTrip(ctx, "alice", "t1", trips.UpdateTripInput{
		Title:       trips.Some("Long Weekend"),
		Description: trips.Null[string](),
		Budget:      trips.Some(950.5),
	})
	if err != nil {
		t.Fatalf("UpdateTrip: %v", err)
	}
	if updated.Title != "Long Weekend" || updated.Description != nil || updated.Budget == nil || *updated.Budget != 950.5 {
		t.Fatalf("updated=%+v", updated)
	}
	if updated.Destination != "Santa Cruz" || !updated.StartDate.Equal(date(2024, 8, 15)) {
		t.Fatalf("unspecified fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(f.clock.Now()) {
		t.Fatalf("updatedAt=%v want=%v", updated.UpdatedAt, f.clock.Now())
	}

	_, err = f.svc.UpdateTrip(ctx, "alice", "t1", trips.UpdateTripInput{})
	requireAppError(t, err, http.StatusBadRequest, apperr.CodeValidation)

	_, err = f.svc.UpdateTrip(ctx, "alice", "t1", trips.UpdateTripInput{Title: trips.Null[string]()})
	requireAppError(t, err, http.StatusBadRequest, apperr.CodeValidation)

	_, err = f.svc.UpdateTrip(ctx, "alice", "t1", trips.UpdateTripInput{Title: trips.Some("  ab  ")})
	requireAppError(t, err, http.StatusBadRequest, apperr.CodeValidation)

	_, err = f.svc.UpdateTrip(ctx, "alice", "t1", trips.UpdateTripInput{Budget: trips.Some(12.345)})
	requireAppError(t, err, http.StatusBadRequest, apperr.CodeValidation)

	_, err = f.svc.UpdateTrip(ctx, "alice", "missing", trips.UpdateTripInput{Title: trips.Some("x y z")})
	requireAppError(t, err, http.StatusNotFound, trips.CodeTripNotFound)
}

func TestService_UpdateTrip_DateOrderingOnlyCheckedWhenBothSupplied(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice")
	f.svc.SetNewTripIDForTest(func() domain.TripID { return "t1" })
	ctx := context.Background()
	if _, err := f.svc.CreateTrip(ctx, "alice", weekend(800)); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	_, err := f.svc.UpdateTrip(ctx, "alice", "t1", trips.UpdateTripInput{
		StartDate: trips.Some(date(2024, 9, 10)),
		EndDate:   trips.Some(date(2024, 9, 1)),
	})
	requireAppError(t, err, http.StatusBadRequest, apperr.CodeValidation)

	// A lone endDate is accepted even when it precedes the stored startDate.
	updated, err := f.svc.UpdateTrip(ctx, "alice", "t1", trips.UpdateTripInput{
		EndDate: trips.Some(date(2024, 8, 1)),
	})
	if err != nil {
		t.Fatalf("UpdateTrip lone endDate: %v", err)
	}
	if !updated.EndDate.Equal(date(2024, 8, 1)) {
		t.Fatalf("endDate=%v", updated.EndDate)
	}
}

func TestService_DeleteTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice", "bob")
	f.svc.SetNewTripIDForTest(func() domain.TripID { return "t1" })
	ctx := context.Background()
	if _, err := f.svc.CreateTrip(ctx, "alice", weekend(800)); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if _, err := f.svc.AddParticipant(ctx, "alice", "t1", "bob"); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	if err := f.svc.DeleteTrip(ctx, "alice", "t1"); err != nil {
		t.Fatalf("DeleteTrip: %v", err)
	}
	_, err := f.svc.GetTrip(ctx, "alice", "t1")
	requireAppError(t, err, http.StatusNotFound, trips.CodeTripNotFound)

	ts, err := f.svc.ListTrips(ctx, "bob")
	if err != nil {
		t.Fatalf("ListTrips: %v", err)
	}
	if len(ts) != 0 {
		t.Fatalf("bob still sees %d trips", len(ts))
	}
}

func TestService_ListTrips_OwnedAndJoinedNewestFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "alice", "bob")
	ctx := context.Background()
	ids := []domain.TripID{"t1", "t2", "t3"}
	i := 0
	f.svc.SetNewTripIDForTest(func() domain.TripID { id := ids[i]; i++; return id })

	if _, err := f.svc.CreateTrip(ctx, "alice", weekend(100)); err != nil {
		t.Fatalf("CreateTrip t1: %v", err)
	}
	f.clock.Advance(time.Minute)
	if _, err := f.svc.CreateTrip(ctx, "bob", weekend(200)); err != nil {
		t.Fatalf("CreateTrip t2: %v", err)
	}
	f.clock.Advance(time.Minute)
	if _, err := f.svc.CreateTrip(ctx, "bob", weekend(300)); err != nil {
		t.Fatalf("CreateTrip t3: %v", err)
	}
	if _, err := f.svc.AddParticipant(ctx, "bob", "t2", "alice"); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}

	ts, err := f.svc.ListTrips(ctx, "alice")
	if err != nil {
		t.Fatalf("ListTrips: %v", err)
	}
	if len(ts) != 2 || ts[0].ID != "t2" || ts[1].ID != "t1" {
		t.Fatalf("trips=%+v", ts)
	}
	if ts[0].CreatorName != "User bob" {
		t.Fatalf("creatorName=%q", ts[0].CreatorName)
	}
}
