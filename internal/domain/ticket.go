package domain

import "time"

// TicketStatus enumerates lifecycle states for chamados.
type TicketStatus string

const (
	TicketStatusAwaitingApprovalEncarregado TicketStatus = "awaiting_approval_encarregado"
	TicketStatusAwaitingApprovalSupervisor  TicketStatus = "awaiting_approval_supervisor"
	TicketStatusAwaitingApprovalGerente     TicketStatus = "awaiting_approval_gerente"
	TicketStatusAwaitingTriage              TicketStatus = "awaiting_triage"
	TicketStatusPrioritized                 TicketStatus = "prioritized"
	TicketStatusInProgress                  TicketStatus = "in_progress"
	TicketStatusResolved                    TicketStatus = "resolved"
	TicketStatusClosed                      TicketStatus = "closed"
	TicketStatusCancelled                   TicketStatus = "cancelled"
	TicketStatusDenied                      TicketStatus = "denied"
)

// IsApprovalStatus reports whether the status belongs to the approval
// segment of the lifecycle. That segment is owned exclusively by the
// approval decision flow; generic transitions are rejected there.
func (s TicketStatus) IsApprovalStatus() bool {
	switch s {
	case TicketStatusAwaitingApprovalEncarregado,
		TicketStatusAwaitingApprovalSupervisor,
		TicketStatusAwaitingApprovalGerente:
		return true
	}
	return false
}

// TicketPriority enumerates triage urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether the priority is a known value.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for chamados.
type Ticket struct {
	ID               string
	TicketNumber     int64
	Title            string
	Description      string
	DepartmentID     string
	CategoryID       *string
	UnitID           *string
	Status           TicketStatus
	Priority         *TicketPriority
	PerceivedUrgency *TicketPriority
	CreatedBy        string
	AssignedTo       *string
	DueDate          *time.Time
	ResolvedAt       *time.Time
	ClosedAt         *time.Time
	DenialReason     *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
