package access

import (
	"errors"
	"net/http"
	"testing"

	"github.com/tripsync/tripsync-api/internal/app/apperr"
	"github.com/tripsync/tripsync-api/internal/domain"
)

func tripWith(creator domain.UserID, participants ...domain.UserID) domain.TripDetails {
	d := domain.TripDetails{Trip: domain.Trip{ID: "t1", CreatedBy: creator}}
	for _, p := range participants {
		d.Participants = append(d.Participants, domain.Participant{UserID: p})
	}
	return d
}

func TestCanView_MembershipStates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		details   domain.TripDetails
		requester domain.UserID
		want      bool
	}{
		{name: "creator without participants", details: tripWith("alice"), requester: "alice", want: true},
		{name: "creator also listed as participant", details: tripWith("alice", "alice"), requester: "alice", want: true},
		{name: "participant", details: tripWith("alice", "bob"), requester: "bob", want: true},
		{name: "one of several participants", details: tripWith("alice", "bob", "carol"), requester: "carol", want: true},
		{name: "stranger with no participants", details: tripWith("alice"), requester: "mallory", want: false},
		{name: "stranger with participants", details: tripWith("alice", "bob"), requester: "mallory", want: false},
		{name: "empty requester", details: tripWith("alice", "bob"), requester: "", want: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CanView(tc.details, tc.requester); got != tc.want {
				t.Fatalf("CanView=%v want=%v", got, tc.want)
			}
		})
	}
}

func TestCanMutate_OnlyCreator(t *testing.T) {
	t.Parallel()

	d := tripWith("alice", "bob")
	if !CanMutate(d.Trip, "alice") {
		t.Fatalf("creator should be able to mutate")
	}
	for _, u := range []domain.UserID{"bob", "mallory", ""} {
		if CanMutate(d.Trip, u) {
			t.Fatalf("CanMutate(%q)=true, want false", u)
		}
	}
}

func TestAuthorize_NonCreatorRejectedForEveryMutation(t *testing.T) {
	t.Parallel()

	d := tripWith("alice", "bob")
	ops := []Operation{OpUpdate, OpDelete, OpAddParticipant, OpRemoveParticipant}
	for _, op := range ops {
		for _, u := range []domain.UserID{"bob", "mallory"} {
			err := Authorize(op, d, u)
			var ae *apperr.Error
			if !errors.As(err, &ae) {
				t.Fatalf("op=%d user=%s: expected *apperr.Error, got %T", op, u, err)
			}
			if ae.Status != http.StatusForbidden || ae.Code != CodeNotTripCreator {
				t.Fatalf("op=%d user=%s: status=%d code=%s", op, u, ae.Status, ae.Code)
			}
			if ae.Message == "" {
				t.Fatalf("op=%d: empty message", op)
			}
		}
		if err := Authorize(op, d, "alice"); err != nil {
			t.Fatalf("op=%d creator err=%v", op, err)
		}
	}
}

func TestAuthorize_View(t *testing.T) {
	t.Parallel()

	d := tripWith("alice", "bob")
	if err := Authorize(OpView, d, "bob"); err != nil {
		t.Fatalf("participant view err=%v", err)
	}
	err := Authorize(OpView, d, "mallory")
	ae, ok := apperr.As(err)
	if !ok || ae.Status != http.StatusForbidden || ae.Code != CodeTripAccessDenied {
		t.Fatalf("stranger view err=%v", err)
	}
	if ae.Message != "You do not have permission to view this trip" {
		t.Fatalf("message=%q", ae.Message)
	}
}

func TestCheckRegistration_Denylist(t *testing.T) {
	t.Parallel()

	base := RegistrationCandidate{Email: "jo@example.com", FirstName: "Jo", LastName: "Doe", Role: domain.RoleStudent}
	if err := CheckRegistration(base); err != nil {
		t.Fatalf("ordinary candidate err=%v", err)
	}

	denied := []RegistrationCandidate{
		{Email: "jo@example.com", FirstName: "Jo", LastName: "Doe", Role: domain.RoleAdmin},
		{Email: "jo@example.com", FirstName: "Jo", LastName: "Doe", Role: "ADMIN"},
		{Email: "admin@example.com", FirstName: "Jo", LastName: "Doe"},
		{Email: "jo@ADMIN.example.com", FirstName: "Jo", LastName: "Doe"},
		{Email: "jo@example.com", FirstName: "AdminUser", LastName: "Doe"},
		{Email: "jo@example.com", FirstName: "Jo", LastName: "sysADMIN"},
		{Email: "jo@example.com", FirstName: "aDmIn", LastName: "Doe", Role: domain.RoleDriver},
	}
	for _, c := range denied {
		err := CheckRegistration(c)
		ae, ok := apperr.As(err)
		if !ok {
			t.Fatalf("candidate %+v: expected denial, got %v", c, err)
		}
		if ae.Status != http.StatusForbidden || ae.Code != CodeAdminRegistrationBan {
			t.Fatalf("candidate %+v: status=%d code=%s", c, ae.Status, ae.Code)
		}
	}
}

func TestCheckRegistration_NearMissesAllowed(t *testing.T) {
	t.Parallel()

	allowed := []RegistrationCandidate{
		{Email: "adm.in@example.com", FirstName: "Ad", LastName: "Min"},
		{Email: "jo@example.com", FirstName: "Admiral", LastName: "Doe", Role: domain.RoleDriver},
	}
	for _, c := range allowed {
		if err := CheckRegistration(c); err != nil {
			t.Fatalf("candidate %+v: err=%v", c, err)
		}
	}
}
