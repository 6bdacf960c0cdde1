package httpapi

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/tripsync/tripsync-api/internal/app/apperr"
	"github.com/tripsync/tripsync-api/internal/domain"
)

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]+$`)

func errNoFields() error {
	return apperr.Validation("At least one field must be provided", nil)
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		// bcrypt ignores everything past 72 bytes.
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&r.FirstName, validation.Required, validation.RuneLength(2, 50)),
		validation.Field(&r.LastName, validation.Required, validation.RuneLength(2, 50)),
		validation.Field(&r.PhoneNumber, validation.Match(phonePattern)),
		validation.Field(&r.Role, validation.In(string(domain.RoleStudent), string(domain.RoleDriver))),
		validation.Field(&r.StudentID, validation.RuneLength(0, 50)),
		validation.Field(&r.LicenseNumber, validation.RuneLength(0, 50)),
		validation.Field(&r.VehicleNumber, validation.RuneLength(0, 50)),
	)
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type profileFields struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (r updateProfileRequest) Validate() error {
	if !r.FirstName.IsSpecified() && !r.LastName.IsSpecified() && !r.PhoneNumber.IsSpecified() {
		return errNoFields()
	}
	f := profileFields{
		FirstName:   valueOrNil(r.FirstName),
		LastName:    valueOrNil(r.LastName),
		PhoneNumber: valueOrNil(r.PhoneNumber),
	}
	return validation.ValidateStruct(&f,
		validation.Field(&f.FirstName, validation.RuneLength(2, 50)),
		validation.Field(&f.LastName, validation.RuneLength(2, 50)),
		validation.Field(&f.PhoneNumber, validation.Match(phonePattern)),
	)
}

func (r createTripRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.By(trimmedLength(domain.TitleMinRunes, 100))),
		validation.Field(&r.Description, validation.RuneLength(0, 500)),
		validation.Field(&r.Destination, validation.Required, validation.By(trimmedLength(domain.DestinationMinRunes, 100))),
		validation.Field(&r.StartDate, validation.Required, validation.By(isoDate)),
		validation.Field(&r.EndDate, validation.Required, validation.By(isoDate), validation.By(dateAfter(&r.StartDate))),
		validation.Field(&r.Budget, validation.By(budget)),
	)
}

type tripFields struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Destination *string  `json:"destination"`
	StartDate   *string  `json:"startDate"`
	EndDate     *string  `json:"endDate"`
	Budget      *float64 `json:"budget"`
}

// Validate checks each supplied field on its own. The two dates are only compared with each other
// when both are in the request.
func (r updateTripRequest) Validate() error {
	if !r.Title.IsSpecified() && !r.Description.IsSpecified() && !r.Destination.IsSpecified() &&
		!r.StartDate.IsSpecified() && !r.EndDate.IsSpecified() && !r.Budget.IsSpecified() {
		return errNoFields()
	}
	f := tripFields{
		Title:       valueOrNil(r.Title),
		Description: valueOrNil(r.Description),
		Destination: valueOrNil(r.Destination),
		StartDate:   valueOrNil(r.StartDate),
		EndDate:     valueOrNil(r.EndDate),
		Budget:      valueOrNil(r.Budget),
	}
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.By(trimmedLength(domain.TitleMinRunes, 100))),
		validation.Field(&f.Description, validation.RuneLength(0, 500)),
		validation.Field(&f.Destination, validation.By(trimmedLength(domain.DestinationMinRunes, 100))),
		validation.Field(&f.StartDate, validation.By(isoDate)),
		validation.Field(&f.EndDate, validation.By(isoDate), validation.By(dateAfter(f.StartDate))),
		validation.Field(&f.Budget, validation.By(budget)),
	)
}

func stringValue(value interface{}) (string, bool) {
	v, isNil := validation.Indirect(value)
	if isNil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func isoDate(value interface{}) error {
	s, ok := stringValue(value)
	if !ok {
		return nil
	}
	if _, err := domain.ParseDate(s); err != nil {
		return errors.New("must be an ISO 8601 date")
	}
	return nil
}

// dateAfter requires the value to be a later date than *start. A missing or unparsable start is
// left to the start field's own rules.
func dateAfter(start *string) validation.RuleFunc {
	return func(value interface{}) error {
		if start == nil || *start == "" {
			return nil
		}
		end, ok := stringValue(value)
		if !ok {
			return nil
		}
		s, err := domain.ParseDate(*start)
		if err != nil {
			return nil
		}
		e, err := domain.ParseDate(end)
		if err != nil {
			return nil
		}
		if !e.After(s) {
			return errors.New("must be after startDate")
		}
		return nil
	}
}

func budget(value interface{}) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	if f, ok := v.(float64); ok {
		return domain.CheckBudget(f)
	}
	return nil
}

// trimmedLength counts runes after trimming, since the trimmed value is what gets stored.
func trimmedLength(min, max int) validation.RuleFunc {
	return func(value interface{}) error {
		s, ok := stringValue(value)
		if !ok {
			return nil
		}
		if n := utf8.RuneCountInString(strings.TrimSpace(s)); n < min || n > max {
			return fmt.Errorf("the length must be between %d and %d", min, max)
		}
		return nil
	}
}
