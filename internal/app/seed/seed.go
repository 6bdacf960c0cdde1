// Package seed loads demo users and trips into an empty store.
package seed

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tripsync/tripsync-api/internal/domain"
	clockport "github.com/tripsync/tripsync-api/internal/ports/out/clock"
	"github.com/tripsync/tripsync-api/internal/ports/out/credentials"
	"github.com/tripsync/tripsync-api/internal/ports/out/triprepo"
	"github.com/tripsync/tripsync-api/internal/ports/out/userrepo"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

type demoUser struct {
	email, first, last, phone string
}

type demoTrip struct {
	title, description, destination string
	start, end                      string
	budget                          float64
	creator                         int
}

var demoUsers = []demoUser{
	{"john.doe@example.com", "John", "Doe", "+1-555-0101"},
	{"jane.smith@example.com", "Jane", "Smith", "+1-555-0102"},
	{"mike.johnson@example.com", "Mike", "Johnson", "+1-555-0103"},
}

var demoTrips = []demoTrip{
	{"Summer Vacation in Bali", "A relaxing trip to explore the beautiful beaches and culture of Bali", "Bali, Indonesia", "2024-07-15", "2024-07-25", 2500, 0},
	{"European Adventure", "Backpacking through major European cities", "Europe", "2024-09-01", "2024-09-20", 3500, 1},
	{"Weekend Getaway to Mountains", "A short hiking trip to the nearby mountains", "Rocky Mountains, Colorado", "2024-06-08", "2024-06-10", 800, 2},
}

// Each user joins the trip at the given index.
var demoMemberships = []struct{ trip, user int }{
	{trip: 0, user: 1},
	{trip: 1, user: 2},
}

type Result struct {
	// Skipped is true when the store already held users.
	Skipped bool
	Users   []domain.User
	Trips   []domain.Trip
}

type Seeder struct {
	users  userrepo.Repository
	trips  triprepo.Repository
	hasher credentials.PasswordHasher
	clk    clockport.Clock
	logger *log.Logger

	newID func() string
}

func New(usersRepo userrepo.Repository, tripsRepo triprepo.Repository, hasher credentials.PasswordHasher, clk clockport.Clock, logger *log.Logger) *Seeder {
	if logger == nil {
		logger = log.Default()
	}
	return &Seeder{
		users:  usersRepo,
		trips:  tripsRepo,
		hasher: hasher,
		clk:    clk,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// SetNewIDForTest overrides ID generation for deterministic tests.
func (s *Seeder) SetNewIDForTest(fn func() string) {
	if fn != nil {
		s.newID = fn
	}
}

// Run inserts the demo data unless any user already exists.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		s.logger.Printf("seed: store already has %d users, skipping", n)
		return Result{Skipped: true}, nil
	}

	hash, err := s.hasher.Hash(DemoPassword)
	if err != nil {
		return Result{}, fmt.Errorf("hash demo password: %w", err)
	}

	var out Result
	now := s.clk.Now().UTC()
	for i, du := range demoUsers {
		phone := du.phone
		u := domain.User{
			ID:           domain.UserID(s.newID()),
			Email:        du.email,
			PasswordHash: hash,
			FirstName:    du.first,
			LastName:     du.last,
			PhoneNumber:  &phone,
			Role:         domain.RoleStudent,
			// Distinct timestamps keep list ordering stable.
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt: now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.users.Create(ctx, u); err != nil {
			return Result{}, fmt.Errorf("create user %s: %w", du.email, err)
		}
		out.Users = append(out.Users, u)
		s.logger.Printf("seed: created user %s (%s)", u.FullName(), u.Email)
	}

	for i, dt := range demoTrips {
		start, err := domain.ParseDate(dt.start)
		if err != nil {
			return Result{}, err
		}
		end, err := domain.ParseDate(dt.end)
		if err != nil {
			return Result{}, err
		}
		desc := dt.description
		budget := dt.budget
		ts := now.Add(time.Duration(i) * time.Millisecond)
		t := domain.Trip{
			ID:          domain.TripID(s.newID()),
			Title:       dt.title,
			Description: &desc,
			Destination: dt.destination,
			StartDate:   start,
			EndDate:     end,
			Budget:      &budget,
			CreatedBy:   out.Users[dt.creator].ID,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		if err := s.trips.Create(ctx, t); err != nil {
			return Result{}, fmt.Errorf("create trip %q: %w", dt.title, err)
		}
		out.Trips = append(out.Trips, t)
		s.logger.Printf("seed: created trip %q to %s", t.Title, t.Destination)
	}

	for _, m := range demoMemberships {
		trip, user := out.Trips[m.trip], out.Users[m.user]
		if _, err := s.trips.AddParticipant(ctx, trip.ID, user.ID, now); err != nil {
			return Result{}, fmt.Errorf("add %s to %q: %w", user.Email, trip.Title, err)
		}
		s.logger.Printf("seed: added %s to %q", user.FirstName, trip.Title)
	}

	s.logger.Printf("seed: done, %d users (password %q), %d trips", len(out.Users), DemoPassword, len(out.Trips))
	return out, nil
}
