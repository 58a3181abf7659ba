package dto

import (
	"time"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	DepartmentID     string                 `json:"department_id"`
	CategoryID       *string                `json:"category_id"`
	UnitID           *string                `json:"unit_id"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	PerceivedUrgency *domain.TicketPriority `json:"perceived_urgency"`
}

// TransitionRequest payload for generic status changes.
type TransitionRequest struct {
	Status domain.TicketStatus `json:"status"`
	Reason string              `json:"reason"`
}

// TriageRequest payload.
type TriageRequest struct {
	Priority   domain.TicketPriority `json:"priority"`
	AssignedTo *string               `json:"assigned_to"`
	DueDate    *time.Time            `json:"due_date"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                 `json:"id"`
	TicketNumber int64                  `json:"ticket_number"`
	Title        string                 `json:"title"`
	DepartmentID string                 `json:"department_id"`
	UnitID       *string                `json:"unit_id"`
	Status       domain.TicketStatus    `json:"status"`
	StatusLabel  string                 `json:"status_label,omitempty"`
	Priority     *domain.TicketPriority `json:"priority"`
	AssignedTo   *string                `json:"assigned_to"`
	CreatedBy    string                 `json:"created_by"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description      string                 `json:"description"`
	CategoryID       *string                `json:"category_id"`
	PerceivedUrgency *domain.TicketPriority `json:"perceived_urgency"`
	DueDate          *time.Time             `json:"due_date"`
	ResolvedAt       *time.Time             `json:"resolved_at"`
	ClosedAt         *time.Time             `json:"closed_at"`
	DenialReason     *string                `json:"denial_reason"`
	CommentCount     int64                  `json:"comment_count"`
	Approvals        []ApprovalResponse     `json:"approvals"`
}

// ApprovalResponse represents one chain level.
type ApprovalResponse struct {
	ID            string                `json:"id"`
	ApprovalLevel int                   `json:"approval_level"`
	ApprovalRole  domain.Role           `json:"approval_role"`
	Status        domain.ApprovalStatus `json:"status"`
	ApprovedBy    *string               `json:"approved_by"`
	DecisionAt    *time.Time            `json:"decision_at"`
	Notes         *string               `json:"notes"`
}

// DecisionRequest payload for approve/deny actions.
type DecisionRequest struct {
	Decision domain.ApprovalStatus `json:"decision"`
	Reason   string                `json:"reason"`
}

// HistoryEntryResponse represents a timeline entry.
type HistoryEntryResponse struct {
	ID        string              `json:"id"`
	Action    domain.TicketAction `json:"action"`
	OldValue  map[string]any      `json:"old_value,omitempty"`
	NewValue  map[string]any      `json:"new_value,omitempty"`
	CreatedBy string              `json:"created_by"`
	CreatedAt time.Time           `json:"created_at"`
}

// AttachmentRequest registers uploaded file metadata.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// AttachmentResponse represents attachment metadata.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	StorageKey string    `json:"storage_key"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
