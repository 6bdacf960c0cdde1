package triprepo

import (
	"context"
	"sync"
	"testing"
	"time"

	memuserrepo "github.com/tripsync/tripsync-api/internal/adapters/memory/userrepo"
	"github.com/tripsync/tripsync-api/internal/domain"
	"github.com/tripsync/tripsync-api/internal/ports/out/triprepo"
)

func seedUsers(t *testing.T, ids ...domain.UserID) *memuserrepo.Repo {
	t.Helper()
	users := memuserrepo.NewRepo()
	for _, id := range ids {
		if err := users.Create(context.Background(), domain.User{ID: id, Email: string(id) + "@example.com", FirstName: "F" + string(id), LastName: "L"}); err != nil {
			t.Fatalf("seed user %s: %v", id, err)
		}
	}
	return users
}

func TestRepo_AddParticipantConcurrentlyKeepsOneRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRepo(seedUsers(t, "creator", "guest"))
	if err := r.Create(ctx, domain.Trip{ID: "t1", Title: "Trip", CreatedBy: "creator"}); err != nil {
		t.Fatalf("Create err=%v", err)
	}

	var wg sync.WaitGroup
	inserted := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := r.AddParticipant(ctx, "t1", "guest", time.Unix(10, 0))
			if err != nil {
				t.Errorf("AddParticipant err=%v", err)
			}
			inserted <- ok
		}()
	}
	wg.Wait()
	close(inserted)

	n := 0
	for ok := range inserted {
		if ok {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("inserted=%d want=1", n)
	}
	ps, _ := r.ListParticipants(ctx, "t1")
	if len(ps) != 1 {
		t.Fatalf("participants=%d want=1", len(ps))
	}
}

func TestRepo_SaveKeepsCreator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRepo(seedUsers(t, "creator", "other"))
	created := time.Unix(100, 0).UTC()
	if err := r.Create(ctx, domain.Trip{ID: "t1", Title: "Trip", CreatedBy: "creator", CreatedAt: created}); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if err := r.Save(ctx, domain.Trip{ID: "t1", Title: "Renamed", CreatedBy: "other"}); err != nil {
		t.Fatalf("Save err=%v", err)
	}
	got, _ := r.GetByID(ctx, "t1")
	if got.Trip.CreatedBy != "creator" || !got.Trip.CreatedAt.Equal(created) || got.Trip.Title != "Renamed" {
		t.Fatalf("unexpected trip after save: %+v", got.Trip)
	}
	if err := r.Save(ctx, domain.Trip{ID: "missing"}); err != triprepo.ErrNotFound {
		t.Fatalf("Save missing err=%v want=%v", err, triprepo.ErrNotFound)
	}
}
