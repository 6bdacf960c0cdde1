// Package access decides who may read or change a trip and who may self-register.
//
// Every check here is a pure predicate over already-loaded data; callers load the trip (with its
// participants) and pass it in.
package access

import (
	"strings"

	"github.com/tripsync/tripsync-api/internal/app/apperr"
	"github.com/tripsync/tripsync-api/internal/domain"
)

// Operation is a trip operation subject to authorization.
type Operation int

const (
	OpView Operation = iota
	OpUpdate
	OpDelete
	OpAddParticipant
	OpRemoveParticipant
)

const (
	CodeTripAccessDenied     = "TRIP_ACCESS_DENIED"
	CodeNotTripCreator       = "NOT_TRIP_CREATOR"
	CodeAdminRegistrationBan = "ADMIN_REGISTRATION_FORBIDDEN"
)

var deniedMessages = map[Operation]string{
	OpView:              "You do not have permission to view this trip",
	OpUpdate:            "Only the trip creator can update this trip",
	OpDelete:            "Only the trip creator can delete this trip",
	OpAddParticipant:    "Only the trip creator can add participants",
	OpRemoveParticipant: "Only the trip creator can remove participants",
}

// CanView reports whether requester created the trip or participates in it.
func CanView(details domain.TripDetails, requester domain.UserID) bool {
	if requester == "" {
		return false
	}
	return details.Trip.CreatedBy == requester || details.HasParticipant(requester)
}

// CanMutate reports whether requester may change the trip or its participant list.
// Only the creator may; participation grants nothing here.
func CanMutate(trip domain.Trip, requester domain.UserID) bool {
	return requester != "" && trip.CreatedBy == requester
}

// Authorize returns nil when requester may perform op on the trip, or a 403 *apperr.Error whose
// message names the operation.
func Authorize(op Operation, details domain.TripDetails, requester domain.UserID) error {
	switch op {
	case OpView:
		if CanView(details, requester) {
			return nil
		}
		return apperr.Forbidden(CodeTripAccessDenied, "", deniedMessages[op])
	case OpUpdate, OpDelete, OpAddParticipant, OpRemoveParticipant:
		if CanMutate(details.Trip, requester) {
			return nil
		}
		return apperr.Forbidden(CodeNotTripCreator, "", deniedMessages[op])
	default:
		return apperr.Forbidden(apperr.CodeForbidden, "", "Operation not permitted")
	}
}

// RegistrationCandidate is the identity a caller asks to register.
type RegistrationCandidate struct {
	Email     string
	FirstName string
	LastName  string
	Role      domain.Role
}

const adminMarker = "admin"

// CheckRegistration blocks self-service creation of admin-looking accounts: the admin role, or an
// email or name containing "admin" in any casing. It is a denylist, not role enforcement.
func CheckRegistration(c RegistrationCandidate) error {
	if strings.EqualFold(strings.TrimSpace(string(c.Role)), string(domain.RoleAdmin)) ||
		containsFold(c.Email, adminMarker) ||
		containsFold(c.FirstName, adminMarker) ||
		containsFold(c.LastName, adminMarker) {
		return apperr.Forbidden(
			CodeAdminRegistrationBan,
			"Admin registration not allowed",
			"Admin account registration is disabled. Please contact system administrator.",
		)
	}
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
