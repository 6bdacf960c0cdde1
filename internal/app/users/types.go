package users

import "github.com/tripsync/tripsync-api/internal/domain"

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber *string
	// Role defaults to student when empty.
	Role domain.Role

	StudentID     *string
	LicenseNumber *string
	VehicleNumber *string
}

// UpdateProfileInput is a partial profile update. Names cannot be null; PhoneNumber may be
// cleared with null.
type UpdateProfileInput struct {
	FirstName   Optional[string]
	LastName    Optional[string]
	PhoneNumber Optional[string]
}

func (in UpdateProfileInput) empty() bool {
	return !in.FirstName.IsSpecified() && !in.LastName.IsSpecified() && !in.PhoneNumber.IsSpecified()
}

// Session is an authenticated user plus the bearer token issued for them.
type Session struct {
	User  domain.User
	Token string
}
