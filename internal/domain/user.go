package domain

import "time"

// User is the domain model for anyone who can sign in: end-users who file
// tickets and administrators who manage them. Admin status is a flag rather
// than a separate subject type.
type User struct {
	ID                      string
	Email                   string
	PasswordHash            string
	FullName                string
	IsAdmin                 bool
	EmailVerified           bool
	VerificationToken       *string
	VerificationTokenExpiry *time.Time
	ResetToken              *string
	ResetTokenExpiry        *time.Time
	CreatedAt               time.Time
}

// CanAccessTicket reports whether the user may read or respond to a ticket.
// Owners and admins may; everyone else is rejected.
func (u *User) CanAccessTicket(t *Ticket) bool {
	if u == nil || t == nil {
		return false
	}
	return u.IsAdmin || t.UserID == u.ID
}
