package model

import "time"

// AccountKind distinguishes how an account authenticates.
type AccountKind string

const (
	// KindLocal marks accounts registered with an email/password pair.
	KindLocal AccountKind = "local"
	// KindProvider marks accounts created by a third-party sign-in; they have
	// no local password and credential login must always fail for them.
	KindProvider AccountKind = "provider"
)

// User represents an authenticated user in the system. Email is the sole
// natural key and is stored normalized (lowercased, trimmed).
type User struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Name         string      `json:"name" gorm:"size:255;not null"`
	Email        string      `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string      `json:"-" gorm:"size:255"` // Never expose in JSON; empty for provider accounts
	Kind         AccountKind `json:"-" gorm:"size:20;not null;default:'local'"`
	Role         string      `json:"role" gorm:"size:50;default:'user'"`
	Image        string      `json:"image,omitempty" gorm:"size:512"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Identity is the minimal projection of a User handed to the session layer
// after a successful authentication. It never carries the password hash.
type Identity struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Identity projects the user for token issuance and API responses.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
