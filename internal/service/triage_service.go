package service

import (
	"context"
	"time"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/events"
	"github.com/andomingos87/garageinn-helpdesk/internal/repository"
	"github.com/andomingos87/garageinn-helpdesk/internal/workflow"
	apperrors "github.com/andomingos87/garageinn-helpdesk/pkg/util/errorutil"
)

// TriageService assigns priority, responsible and due date to tickets that
// cleared their approval chain, advancing them into active work.
type TriageService struct {
	tickets    *TicketService
	repo       repository.TicketRepository
	roles      workflow.RoleProvider
	dispatcher events.Dispatcher
}

// NewTriageService constructs the service.
func NewTriageService(tickets *TicketService, repo repository.TicketRepository, roles workflow.RoleProvider, dispatcher events.Dispatcher) *TriageService {
	return &TriageService{
		tickets:    tickets,
		repo:       repo,
		roles:      roles,
		dispatcher: dispatcher,
	}
}

// TriageInput describes triage parameters. Priority is mandatory.
type TriageInput struct {
	Priority   domain.TicketPriority
	AssignedTo *string
	DueDate    *time.Time
}

// Triage prioritizes an awaiting_triage ticket and advances it to the
// department's triage target (prioritized, or in_progress where work
// starts immediately).
func (s *TriageService) Triage(ctx context.Context, actor workflow.Actor, ticketID string, input TriageInput) (*domain.Ticket, error) {
	if input.Priority == "" {
		return nil, apperrors.NewValidationError("priority is required for triage", nil)
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	ticket, cfg, err := s.tickets.loadTicketWorkflow(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	role, err := s.roles.GetActorRole(ctx, actor.UserID, ticket.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !actor.IsAdmin && role == domain.RoleColaborador {
		return nil, apperrors.NewForbidden("triage requires a department rank")
	}

	if ticket.Status != domain.TicketStatusAwaitingTriage {
		return nil, apperrors.NewIllegalTransition("ticket is not awaiting triage", map[string]any{
			"status": string(ticket.Status),
		})
	}

	target := cfg.TriageTarget
	if !cfg.CanTransition(ticket.Status, target) {
		return nil, apperrors.NewIllegalTransition("triage target not allowed", map[string]any{
			"from": string(ticket.Status),
			"to":   string(target),
		})
	}

	priority := input.Priority
	entry := &domain.TicketHistory{
		Action:   domain.ActionTriaged,
		OldValue: map[string]any{"status": string(ticket.Status)},
		NewValue: map[string]any{
			"status":   string(target),
			"priority": string(priority),
		},
		CreatedBy: actor.UserID,
	}
	history := []*domain.TicketHistory{entry}
	if input.AssignedTo != nil {
		entry.NewValue["assigned_to"] = *input.AssignedTo
		history = append(history, &domain.TicketHistory{
			Action:    domain.ActionAssigned,
			NewValue:  map[string]any{"assigned_to": *input.AssignedTo},
			CreatedBy: actor.UserID,
		})
	}

	update := repository.StatusUpdate{
		TicketID:   ticket.ID,
		From:       domain.TicketStatusAwaitingTriage,
		To:         target,
		Priority:   &priority,
		AssignedTo: input.AssignedTo,
		DueDate:    input.DueDate,
		History:    history,
	}
	if err := s.repo.UpdateStatusGuarded(ctx, update); err != nil {
		return nil, mapGuardedError(err, "ticket", ticket.ID)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketTriaged,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.UserID},
		Payload: events.TicketTriagedPayload{
			Priority:   priority,
			AssignedTo: input.AssignedTo,
			DueDate:    input.DueDate,
			NewStatus:  target,
		},
	})

	updated, err := s.repo.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}
