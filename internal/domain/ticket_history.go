package domain

import "time"

// TicketAction captures what a history entry records.
type TicketAction string

const (
	ActionCreated       TicketAction = "created"
	ActionStatusChanged TicketAction = "status_changed"
	ActionApproved      TicketAction = "approved"
	ActionDenied        TicketAction = "denied"
	ActionTriaged       TicketAction = "triaged"
	ActionAssigned      TicketAction = "assigned"
	ActionCommented     TicketAction = "commented"
)

// TicketHistory is an append-only audit trail entry. Entries are written
// for every state-changing engine operation and are never mutated.
type TicketHistory struct {
	ID        string
	TicketID  string
	Action    TicketAction
	OldValue  map[string]any
	NewValue  map[string]any
	CreatedBy string
	CreatedAt time.Time
}
