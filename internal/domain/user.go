package domain

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleDriver  Role = "driver"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleDriver, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID           UserID
	Email        string
	PasswordHash string

	FirstName   string
	LastName    string
	PhoneNumber *string
	Role        Role

	StudentID     *string
	LicenseNumber *string
	VehicleNumber *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) FullName() string {
	return NormalizeHumanName(u.FirstName + " " + u.LastName)
}
