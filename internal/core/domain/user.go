package domain

import "time"

// Functions accepted on public registration.
var StaffFunctions = []string{
	"Security Officer",
	"Operations Manager",
	"Baggage Handler",
	"Customs Agent",
	"Air Traffic Controller",
	"Maintenance Technician",
}

// Services accepted on public registration.
var StaffServices = []string{
	"Security",
	"Operations",
	"Passenger Services",
	"Customs",
	"Air Traffic Control",
	"Maintenance",
}

// User models a member of airport staff.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Function     string    `json:"function"`
	Service      string    `json:"service"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the resolved caller of a request.
type Identity struct {
	UserID  string
	Name    string
	Email   string
	IsAdmin bool
	TokenID string
	// TokenExpiresAt bounds how long a revocation must be remembered.
	TokenExpiresAt time.Time
}

// Authenticated reports whether the identity was produced by a credential.
func (i Identity) Authenticated() bool { return i.UserID != "" }

// IdentityOf builds the identity for a user without token metadata.
func IdentityOf(u *User) Identity {
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin}
}
