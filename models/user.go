package models

import "time"

type User struct {
	ID           int    `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"is_active"`

	ConfirmationToken     *string    `json:"-"`
	ConfirmationExpiresAt *time.Time `json:"-"`
	ResetToken            *string    `json:"-"`
	ResetExpiresAt        *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
