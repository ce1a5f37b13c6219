package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// User is a stored account. Admins share the same shape but live in their own table.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // bcrypt hash, never serialized
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public projection returned by signup, login and verify.
type Profile struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email}
}

type Session struct {
	Token     string    `json:"token"`
	SubjectID uuid.UUID `json:"subject_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

type Stats struct {
	TotalUsers       int64 `json:"totalUsers"`
	TotalPredictions int64 `json:"totalPredictions"`
	ActiveSessions   int64 `json:"activeSessions"`
}
