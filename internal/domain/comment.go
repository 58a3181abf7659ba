package domain

import "time"

// Comment is a threaded message on a ticket. Internal comments are only
// visible to department members.
type Comment struct {
	ID         string
	TicketID   string
	Content    string
	IsInternal bool
	CreatedBy  string
	CreatedAt  time.Time
}
