package model

import "time"

// StudentProfile is the owner record documents belong to. UserID links it to the principal
// that signs in as this student.
type StudentProfile struct {
	ID        string
	UserID    string
	Avatar    *StorageLocation
	UpdatedAt time.Time
}
