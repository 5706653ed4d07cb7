package domain

import "time"

// Response is a message in a ticket's conversation thread. Responses are
// immutable once created. IsStaff records whether the author held admin
// status at creation time; it is never re-derived.
type Response struct {
	ID        string
	TicketID  string
	UserID    string
	Message   string
	IsStaff   bool
	CreatedAt time.Time
}
