package model

import "time"

// Role names stored in users.role and carried in the JWT role claim.
const (
	RoleTraveler = "TRAVELER"
	RolePartner  = "PARTNER"
)

// User represents an application user record as stored in the `users`
// table.  The json tags are omitted because these structs are used by the
// repository and auth layers; handlers define their own response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – TRAVELER or PARTNER.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile holds the contact details used to pre-fill booking forms.  Any
// field may be empty.
type Profile struct {
	UserID    uint64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	UpdatedAt time.Time
}

// FullName joins first and last name, skipping empty parts.
func (p Profile) FullName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}

// Partner is a conservation organisation hosting experiences.  A partner is
// managed by exactly one PARTNER user.
type Partner struct {
	ID        string
	UserID    uint64
	Name      string
	Project   string
	CreatedAt time.Time
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
