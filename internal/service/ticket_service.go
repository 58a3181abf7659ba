package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/events"
	"github.com/andomingos87/garageinn-helpdesk/internal/repository"
	"github.com/andomingos87/garageinn-helpdesk/internal/workflow"
	apperrors "github.com/andomingos87/garageinn-helpdesk/pkg/util/errorutil"
)

// TicketService owns ticket creation and the generic status lifecycle:
// resolving the approval chain on creation and validating table-driven
// transitions afterwards.
type TicketService struct {
	tickets     repository.TicketRepository
	approvals   repository.ApprovalRepository
	departments repository.DepartmentRepository
	units       repository.UnitRepository
	history     repository.TicketHistoryRepository
	attachments repository.AttachmentRepository
	roles       workflow.RoleProvider
	dispatcher  events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	ApprovalRepo   repository.ApprovalRepository
	DepartmentRepo repository.DepartmentRepository
	UnitRepo       repository.UnitRepository
	HistoryRepo    repository.TicketHistoryRepository
	AttachmentRepo repository.AttachmentRepository
	Roles          workflow.RoleProvider
	Dispatcher     events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	DepartmentID     string
	CategoryID       *string
	UnitID           *string
	Title            string
	Description      string
	PerceivedUrgency *domain.TicketPriority
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	DepartmentID *string
	UnitID       *string
	AssignedTo   *string
	CreatedBy    *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		approvals:   deps.ApprovalRepo,
		departments: deps.DepartmentRepo,
		units:       deps.UnitRepo,
		history:     deps.HistoryRepo,
		attachments: deps.AttachmentRepo,
		roles:       deps.Roles,
		dispatcher:  deps.Dispatcher,
	}
}

// CreateTicket resolves the creator's approval chain and persists the
// ticket, every approval row and the "created" history entry atomically.
// A creator outranking the whole hierarchy auto-approves into triage with
// no approval rows.
func (s *TicketService) CreateTicket(ctx context.Context, actor workflow.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if input.DepartmentID == "" || title == "" || description == "" {
		return nil, apperrors.NewValidationError("department_id, title and description are required", nil)
	}
	if input.PerceivedUrgency != nil && !input.PerceivedUrgency.Valid() {
		return nil, apperrors.NewValidationError("invalid perceived_urgency", map[string]any{"perceived_urgency": *input.PerceivedUrgency})
	}

	dept, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": input.DepartmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !dept.IsActive {
		return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": dept.ID})
	}
	cfg, ok := workflow.ForDepartment(dept.Code)
	if !ok {
		return nil, apperrors.NewConflict("department has no workflow configuration", map[string]any{"department": dept.Code})
	}

	if input.UnitID != nil {
		unit, err := s.units.GetByID(ctx, *input.UnitID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("unit", map[string]any{"unit_id": *input.UnitID})
			}
			return nil, apperrors.MapError(err)
		}
		if !unit.IsActive {
			return nil, apperrors.NewConflict("unit inactive", map[string]any{"unit_id": unit.ID})
		}
	}

	creatorRole, err := s.roles.GetActorRole(ctx, actor.UserID, dept.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	chain := cfg.RequiredApprovals(creatorRole)
	status := cfg.InitialStatus(chain)

	ticket := &domain.Ticket{
		Title:            title,
		Description:      description,
		DepartmentID:     dept.ID,
		CategoryID:       input.CategoryID,
		UnitID:           input.UnitID,
		Status:           status,
		PerceivedUrgency: input.PerceivedUrgency,
		CreatedBy:        actor.UserID,
	}

	// Every level of the chain is materialized up front; the decision
	// processor gates action on level ordering, not on row absence.
	approvals := make([]*domain.Approval, 0, len(chain))
	for i, role := range chain {
		approvals = append(approvals, &domain.Approval{
			ApprovalLevel: i + 1,
			ApprovalRole:  role,
			Status:        domain.ApprovalStatusPending,
		})
	}

	entry := &domain.TicketHistory{
		Action: domain.ActionCreated,
		NewValue: map[string]any{
			"status":          string(status),
			"approval_levels": len(chain),
		},
		CreatedBy: actor.UserID,
	}

	if err := s.tickets.CreateWithChain(ctx, ticket, approvals, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.UserID},
		Payload: events.TicketCreatedPayload{
			TicketNumber:  ticket.TicketNumber,
			DepartmentID:  ticket.DepartmentID,
			UnitID:        ticket.UnitID,
			InitialStatus: ticket.Status,
			ChainLength:   len(chain),
			Title:         ticket.Title,
		},
	})
	return ticket, nil
}

// Transition applies a table-driven status change. It refuses to touch
// tickets sitting in the approval segment; that part of the lifecycle is
// owned by the approval decision flow.
func (s *TicketService) Transition(ctx context.Context, actor workflow.Actor, ticketID string, newStatus domain.TicketStatus, reason string) (*domain.Ticket, error) {
	ticket, cfg, err := s.loadTicketWorkflow(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	role, err := s.roles.GetActorRole(ctx, actor.UserID, ticket.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !canOperate(actor, role, ticket) {
		return nil, apperrors.NewForbidden("not allowed to change this ticket")
	}

	if ticket.Status.IsApprovalStatus() {
		return nil, apperrors.NewIllegalTransition("ticket is awaiting approval; use the approval flow", map[string]any{
			"status": string(ticket.Status),
		})
	}
	reason = strings.TrimSpace(reason)
	if newStatus == domain.TicketStatusDenied && reason == "" {
		return nil, apperrors.NewValidationError("reason is required to deny a ticket", nil)
	}
	if !cfg.CanTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewIllegalTransition("status transition not allowed", map[string]any{
			"from":    string(ticket.Status),
			"to":      string(newStatus),
			"allowed": cfg.AllowedTransitions(ticket.Status),
		})
	}

	update := repository.StatusUpdate{
		TicketID: ticket.ID,
		From:     ticket.Status,
		To:       newStatus,
	}
	now := time.Now()
	switch newStatus {
	case domain.TicketStatusResolved:
		update.ResolvedAt = &now
	case domain.TicketStatusClosed:
		update.ClosedAt = &now
	}
	update.History = []*domain.TicketHistory{statusChangeEntry(actor.UserID, ticket.Status, newStatus, reason)}

	if err := s.tickets.UpdateStatusGuarded(ctx, update); err != nil {
		return nil, mapGuardedError(err, "ticket", ticket.ID)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.UserID},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: ticket.Status,
			NewStatus: newStatus,
			Reason:    reason,
		},
	})

	updated, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}

// GetTicket loads a ticket with its approvals.
func (s *TicketService) GetTicket(ctx context.Context, actor workflow.Actor, ticketID string) (*domain.Ticket, []domain.Approval, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	approvals, err := s.approvals.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, approvals, nil
}

// ListTickets returns tickets matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, actor workflow.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		CreatedBy:    filter.CreatedBy,
		DepartmentID: filter.DepartmentID,
		UnitID:       filter.UnitID,
		AssignedTo:   filter.AssignedTo,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// ListHistory returns the audit timeline for a ticket.
func (s *TicketService) ListHistory(ctx context.Context, actor workflow.Actor, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.history.ListByTicket(ctx, ticketID, limit, offset)
}

// StatusLabel exposes the department's display label for a status.
func (s *TicketService) StatusLabel(code domain.DepartmentCode, status domain.TicketStatus) string {
	cfg, ok := workflow.ForDepartment(code)
	if !ok {
		return string(status)
	}
	return cfg.Label(status)
}

// StatusLabelForTicket resolves the display label for a ticket's current
// status through its department configuration.
func (s *TicketService) StatusLabelForTicket(ctx context.Context, ticket *domain.Ticket) string {
	dept, err := s.departments.GetByID(ctx, ticket.DepartmentID)
	if err != nil {
		return string(ticket.Status)
	}
	return s.StatusLabel(dept.Code, ticket.Status)
}

// AttachmentInput carries file metadata; the bytes live in external
// storage under StorageKey.
type AttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// AddAttachment links uploaded file metadata to a ticket.
func (s *TicketService) AddAttachment(ctx context.Context, actor workflow.Actor, ticketID string, input AttachmentInput) (*domain.Attachment, error) {
	if strings.TrimSpace(input.StorageKey) == "" || strings.TrimSpace(input.FileName) == "" {
		return nil, apperrors.NewValidationError("storage_key and file_name are required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	attachment := &domain.Attachment{
		TicketID:   ticket.ID,
		StorageKey: input.StorageKey,
		FileName:   input.FileName,
		MimeType:   input.MimeType,
		SizeBytes:  input.SizeBytes,
		UploadedBy: actor.UserID,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// ListAttachments returns a ticket's attachment metadata.
func (s *TicketService) ListAttachments(ctx context.Context, actor workflow.Actor, ticketID string) ([]domain.Attachment, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.attachments.ListByTicket(ctx, ticketID)
}

func (s *TicketService) loadTicketWorkflow(ctx context.Context, ticketID string) (*domain.Ticket, *workflow.Config, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	dept, err := s.departments.GetByID(ctx, ticket.DepartmentID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	cfg, ok := workflow.ForDepartment(dept.Code)
	if !ok {
		return nil, nil, apperrors.NewConflict("department has no workflow configuration", map[string]any{"department": dept.Code})
	}
	return ticket, cfg, nil
}
