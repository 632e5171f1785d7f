package models

import "time"

// User is an account allowed to upload and manage assets. PasswordHash is a
// bcrypt hash; the clear-text password is never stored.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
