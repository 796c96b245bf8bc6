package identity

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a login credential. Its ID is shared by the user's profile.
type Identity struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Profile maps to the profiles table.
type Profile struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	FullName       string    `db:"full_name" json:"full_name"`
	Role           string    `db:"role" json:"role"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	DateOfBirth    *string   `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	LicenseNumber  *string   `db:"license_number" json:"license_number,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// UserData is the profile part of a registration request.
type UserData struct {
	FullName       string  `json:"full_name"`
	Role           string  `json:"role"`
	Phone          *string `json:"phone"`
	DateOfBirth    *string `json:"date_of_birth"`
	Specialization *string `json:"specialization"`
	LicenseNumber  *string `json:"license_number"`
}

type RegisterRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	UserData UserData `json:"userData"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"userId"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}
