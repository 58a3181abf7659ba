package events

import (
	"time"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventApprovalDecided     EventType = "approval_decided"
	EventTicketTriaged       EventType = "ticket_triaged"
	EventCommentAdded        EventType = "comment_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string `json:"user_id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber  int64               `json:"ticket_number"`
	DepartmentID  string              `json:"department_id"`
	UnitID        *string             `json:"unit_id,omitempty"`
	InitialStatus domain.TicketStatus `json:"initial_status"`
	ChainLength   int                 `json:"chain_length"`
	Title         string              `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reason    string              `json:"reason,omitempty"`
}

// ApprovalDecidedPayload payload.
type ApprovalDecidedPayload struct {
	ApprovalID    string                `json:"approval_id"`
	ApprovalLevel int                   `json:"approval_level"`
	ApprovalRole  domain.Role           `json:"approval_role"`
	Decision      domain.ApprovalStatus `json:"decision"`
	NewStatus     domain.TicketStatus   `json:"new_status"`
}

// TicketTriagedPayload payload.
type TicketTriagedPayload struct {
	Priority   domain.TicketPriority `json:"priority"`
	AssignedTo *string               `json:"assigned_to,omitempty"`
	DueDate    *time.Time            `json:"due_date,omitempty"`
	NewStatus  domain.TicketStatus   `json:"new_status"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID  string `json:"comment_id"`
	IsInternal bool   `json:"is_internal"`
	Preview    string `json:"preview"`
}
