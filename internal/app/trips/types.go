package trips

import (
	"time"
)

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

type CreateTripInput struct {
	Title       string
	Description *string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Budget      *float64
}

// UpdateTripInput carries a partial update. Title, Destination and the dates cannot be null;
// Description and Budget may be cleared with null.
type UpdateTripInput struct {
	Title       Optional[string]
	Description Optional[string]
	Destination Optional[string]
	StartDate   Optional[time.Time]
	EndDate     Optional[time.Time]
	Budget      Optional[float64]
}

func (in UpdateTripInput) empty() bool {
	return !in.Title.IsSpecified() &&
		!in.Description.IsSpecified() &&
		!in.Destination.IsSpecified() &&
		!in.StartDate.IsSpecified() &&
		!in.EndDate.IsSpecified() &&
		!in.Budget.IsSpecified()
}
