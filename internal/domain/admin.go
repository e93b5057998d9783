package domain

import "time"

// Admin models an administrator account.
type Admin struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
