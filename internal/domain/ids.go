package domain

// UserID identifies a user record. Values are UUID strings assigned by the server.
type UserID string

// TripID identifies a trip record.
type TripID string
