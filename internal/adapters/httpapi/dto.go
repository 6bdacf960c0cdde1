package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tripsync/tripsync-api/internal/app/trips"
	"github.com/tripsync/tripsync-api/internal/app/users"
	"github.com/tripsync/tripsync-api/internal/domain"
)

type userDTO struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	PhoneNumber   *string   `json:"phoneNumber"`
	Role          string    `json:"role"`
	StudentID     *string   `json:"studentId,omitempty"`
	LicenseNumber *string   `json:"licenseNumber,omitempty"`
	VehicleNumber *string   `json:"vehicleNumber,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// userSummaryDTO is what other users get to see (email search).
type userSummaryDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type tripDTO struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  *string            `json:"description"`
	Destination  string             `json:"destination"`
	StartDate    openapi_types.Date `json:"startDate"`
	EndDate      openapi_types.Date `json:"endDate"`
	Budget       *float64           `json:"budget"`
	CreatedBy    string             `json:"createdBy"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	CreatorName  string             `json:"creatorName,omitempty"`
	CreatorEmail string             `json:"creatorEmail,omitempty"`
}

type participantDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	JoinedAt  time.Time `json:"joinedAt"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type sessionResponse struct {
	Message string  `json:"message"`
	User    userDTO `json:"user"`
	Token   string  `json:"token"`
}

type userResponse struct {
	Message string  `json:"message,omitempty"`
	User    userDTO `json:"user"`
}

type userSearchResponse struct {
	User userSummaryDTO `json:"user"`
}

type tripListResponse struct {
	Trips []tripDTO `json:"trips"`
}

type tripDetailsResponse struct {
	Trip         tripDTO          `json:"trip"`
	Participants []participantDTO `json:"participants"`
}

type tripResponse struct {
	Message string  `json:"message"`
	Trip    tripDTO `json:"trip"`
}

type participantsResponse struct {
	Message      string           `json:"message"`
	Participants []participantDTO `json:"participants"`
}

type healthResponse struct {
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
}

// Requests.

type registerRequest struct {
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	PhoneNumber   *string `json:"phoneNumber"`
	Role          string  `json:"role"`
	StudentID     *string `json:"studentId"`
	LicenseNumber *string `json:"licenseNumber"`
	VehicleNumber *string `json:"vehicleNumber"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	FirstName   nullable.Nullable[string] `json:"firstName,omitempty"`
	LastName    nullable.Nullable[string] `json:"lastName,omitempty"`
	PhoneNumber nullable.Nullable[string] `json:"phoneNumber,omitempty"`
}

// Dates stay strings on the wire so both YYYY-MM-DD and RFC 3339 are accepted.
type createTripRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Destination string   `json:"destination"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Budget      *float64 `json:"budget"`
}

type updateTripRequest struct {
	Title       nullable.Nullable[string]  `json:"title,omitempty"`
	Description nullable.Nullable[string]  `json:"description,omitempty"`
	Destination nullable.Nullable[string]  `json:"destination,omitempty"`
	StartDate   nullable.Nullable[string]  `json:"startDate,omitempty"`
	EndDate     nullable.Nullable[string]  `json:"endDate,omitempty"`
	Budget      nullable.Nullable[float64] `json:"budget,omitempty"`
}

type addParticipantRequest struct {
	UserID string `json:"userId"`
}

func userFromDomain(u domain.User) userDTO {
	return userDTO{
		ID:            string(u.ID),
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		PhoneNumber:   u.PhoneNumber,
		Role:          string(u.Role),
		StudentID:     u.StudentID,
		LicenseNumber: u.LicenseNumber,
		VehicleNumber: u.VehicleNumber,
		CreatedAt:     u.CreatedAt.UTC(),
		UpdatedAt:     u.UpdatedAt.UTC(),
	}
}

func userSummaryFromDomain(u domain.User) userSummaryDTO {
	return userSummaryDTO{
		ID:        string(u.ID),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func tripFromDomain(t domain.Trip) tripDTO {
	return tripDTO{
		ID:          string(t.ID),
		Title:       t.Title,
		Description: t.Description,
		Destination: t.Destination,
		StartDate:   openapi_types.Date{Time: domain.DateOnly(t.StartDate)},
		EndDate:     openapi_types.Date{Time: domain.DateOnly(t.EndDate)},
		Budget:      t.Budget,
		CreatedBy:   string(t.CreatedBy),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func tripSummaryFromDomain(s domain.TripSummary) tripDTO {
	out := tripFromDomain(s.Trip)
	out.CreatorName = s.CreatorName
	return out
}

func tripDetailsFromDomain(d domain.TripDetails) tripDetailsResponse {
	trip := tripFromDomain(d.Trip)
	trip.CreatorName = d.CreatorName
	trip.CreatorEmail = d.CreatorEmail
	return tripDetailsResponse{Trip: trip, Participants: participantsFromDomain(d.Participants)}
}

func participantsFromDomain(ps []domain.Participant) []participantDTO {
	out := make([]participantDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, participantDTO{
			ID:        string(p.UserID),
			Email:     p.Email,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			JoinedAt:  p.JoinedAt.UTC(),
		})
	}
	return out
}

func valueOrNil[T any](n nullable.Nullable[T]) *T {
	if !n.IsSpecified() || n.IsNull() {
		return nil
	}
	v, err := n.Get()
	if err != nil {
		return nil
	}
	return &v
}

func optionalUserString(n nullable.Nullable[string]) users.Optional[string] {
	if !n.IsSpecified() {
		return users.Unspecified[string]()
	}
	if n.IsNull() {
		return users.Null[string]()
	}
	v, err := n.Get()
	if err != nil {
		return users.Unspecified[string]()
	}
	return users.Some(v)
}

func optionalTripValue[T any](n nullable.Nullable[T]) trips.Optional[T] {
	if !n.IsSpecified() {
		return trips.Unspecified[T]()
	}
	if n.IsNull() {
		return trips.Null[T]()
	}
	v, err := n.Get()
	if err != nil {
		return trips.Unspecified[T]()
	}
	return trips.Some(v)
}

// optionalTripDate parses a supplied date; validation has already rejected unparsable values.
func optionalTripDate(n nullable.Nullable[string]) trips.Optional[time.Time] {
	if !n.IsSpecified() {
		return trips.Unspecified[time.Time]()
	}
	if n.IsNull() {
		return trips.Null[time.Time]()
	}
	v, err := n.Get()
	if err != nil {
		return trips.Unspecified[time.Time]()
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		return trips.Unspecified[time.Time]()
	}
	return trips.Some(d)
}

func profileInputFromRequest(b updateProfileRequest) users.UpdateProfileInput {
	return users.UpdateProfileInput{
		FirstName:   optionalUserString(b.FirstName),
		LastName:    optionalUserString(b.LastName),
		PhoneNumber: optionalUserString(b.PhoneNumber),
	}
}

func updateTripInputFromRequest(b updateTripRequest) trips.UpdateTripInput {
	return trips.UpdateTripInput{
		Title:       optionalTripValue(b.Title),
		Description: optionalTripValue(b.Description),
		Destination: optionalTripValue(b.Destination),
		StartDate:   optionalTripDate(b.StartDate),
		EndDate:     optionalTripDate(b.EndDate),
		Budget:      optionalTripValue(b.Budget),
	}
}
