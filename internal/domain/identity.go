package domain

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the authenticated caller as presented by the identity
// collaborator. Only Subject is guaranteed; everything else is best-effort
// claims.
type Principal struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	Roles     []string
}

// PrimaryRole picks the first role claim for audit snapshots.
func (p Principal) PrimaryRole() string {
	if len(p.Roles) == 0 {
		return ""
	}
	return p.Roles[0]
}

// User is the local identity record attached to audit entries. It is
// find-or-created from the Principal so audit writes never block on a missing
// user row.
type User struct {
	ID              uuid.UUID
	ExternalSubject string
	Email           string
	FirstName       string
	LastName        string
	Role            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName favors real names and degrades to the email local part.
func (u User) DisplayName() string {
	if u.FirstName != "" || u.LastName != "" {
		name := u.FirstName
		if u.LastName != "" {
			if name != "" {
				name += " "
			}
			name += u.LastName
		}
		return name
	}
	return u.Email
}
