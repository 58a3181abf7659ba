package domain

import "time"

// ApprovalStatus represents the lifecycle state of one approval gate.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusDenied   ApprovalStatus = "denied"
)

// Approval is one gate in a ticket's approval chain. Levels are 1-based
// and strictly increasing within a ticket; all rows of a chain are created
// together with the ticket and are never deleted.
type Approval struct {
	ID            string
	TicketID      string
	ApprovalLevel int
	ApprovalRole  Role
	Status        ApprovalStatus
	ApprovedBy    *string
	DecisionAt    *time.Time
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
