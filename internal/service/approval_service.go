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

// ApprovalService processes approve/deny decisions on a ticket's approval
// chain. It is the only component that moves tickets through the
// awaiting_approval_* segment.
type ApprovalService struct {
	tickets     repository.TicketRepository
	approvals   repository.ApprovalRepository
	departments repository.DepartmentRepository
	roles       workflow.RoleProvider
	dispatcher  events.Dispatcher
}

// ApprovalDependencies bundles collaborators for the approval service.
type ApprovalDependencies struct {
	TicketRepo     repository.TicketRepository
	ApprovalRepo   repository.ApprovalRepository
	DepartmentRepo repository.DepartmentRepository
	Roles          workflow.RoleProvider
	Dispatcher     events.Dispatcher
}

// NewApprovalService constructs the service.
func NewApprovalService(deps ApprovalDependencies) *ApprovalService {
	return &ApprovalService{
		tickets:     deps.TicketRepo,
		approvals:   deps.ApprovalRepo,
		departments: deps.DepartmentRepo,
		roles:       deps.Roles,
		dispatcher:  deps.Dispatcher,
	}
}

// DecisionInput describes an approve/deny action.
type DecisionInput struct {
	TicketID   string
	ApprovalID string
	Decision   domain.ApprovalStatus
	Reason     string
}

// Decide applies one decision to the chain. The targeted approval must be
// the lowest pending level and the ticket must still sit in that level's
// awaiting status; the actor must hold the level's role in the ticket's
// department. Approving advances the ticket to the next level or to
// triage; denying terminates the chain and stamps the denial reason.
// Approvals above a denied level stay pending but become unreachable: the
// ticket status guard blocks every further decision.
func (s *ApprovalService) Decide(ctx context.Context, actor workflow.Actor, input DecisionInput) (*domain.Ticket, error) {
	if input.Decision != domain.ApprovalStatusApproved && input.Decision != domain.ApprovalStatusDenied {
		return nil, apperrors.NewValidationError("decision must be approved or denied", map[string]any{"decision": input.Decision})
	}
	reason := strings.TrimSpace(input.Reason)
	if input.Decision == domain.ApprovalStatusDenied && reason == "" {
		return nil, apperrors.NewValidationError("reason is required to deny an approval", nil)
	}

	approval, err := s.approvals.GetByID(ctx, input.ApprovalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("approval", map[string]any{"approval_id": input.ApprovalID})
		}
		return nil, apperrors.MapError(err)
	}
	if approval.TicketID != input.TicketID {
		return nil, apperrors.NewNotFound("approval", map[string]any{"approval_id": input.ApprovalID, "ticket_id": input.TicketID})
	}
	if approval.Status != domain.ApprovalStatusPending {
		return nil, apperrors.NewConflict("approval already decided", map[string]any{
			"approval_id": approval.ID,
			"status":      string(approval.Status),
		})
	}

	chain, err := s.approvals.ListByTicket(ctx, approval.TicketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if lowest := lowestPendingLevel(chain); approval.ApprovalLevel != lowest {
		return nil, apperrors.NewIllegalTransition("approval is not the current level", map[string]any{
			"approval_level": approval.ApprovalLevel,
			"current_level":  lowest,
		})
	}

	ticket, err := s.tickets.GetByID(ctx, approval.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": approval.TicketID})
		}
		return nil, apperrors.MapError(err)
	}
	// Cross-check against the registry: the ticket must still be waiting
	// on exactly this level's role. A denied or advanced ticket fails here.
	expected := domain.AwaitingApprovalStatus(approval.ApprovalRole)
	if ticket.Status != expected {
		return nil, apperrors.NewIllegalTransition("ticket is not awaiting this approval", map[string]any{
			"status":   string(ticket.Status),
			"expected": string(expected),
		})
	}

	actorRole, err := s.roles.GetActorRole(ctx, actor.UserID, ticket.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !actor.IsAdmin && actorRole != approval.ApprovalRole {
		return nil, apperrors.NewForbidden("approval requires role " + string(approval.ApprovalRole))
	}

	now := time.Now()
	decision := repository.ApprovalDecision{
		ApprovalID: approval.ID,
		TicketID:   ticket.ID,
		Status:     input.Decision,
		ApprovedBy: actor.UserID,
		DecisionAt: now,
		TicketFrom: ticket.Status,
	}
	if reason != "" {
		decision.Notes = &reason
	}

	if input.Decision == domain.ApprovalStatusApproved {
		decision.TicketTo = nextStatusAfter(chain, approval.ApprovalLevel)
		decision.History = []*domain.TicketHistory{
			{
				Action:    domain.ActionApproved,
				OldValue:  map[string]any{"approval_level": approval.ApprovalLevel, "approval_role": string(approval.ApprovalRole)},
				NewValue:  map[string]any{"status": string(domain.ApprovalStatusApproved)},
				CreatedBy: actor.UserID,
			},
			statusChangeEntry(actor.UserID, ticket.Status, decision.TicketTo, ""),
		}
	} else {
		decision.TicketTo = domain.TicketStatusDenied
		decision.DenialReason = &reason
		decision.History = []*domain.TicketHistory{
			{
				Action:    domain.ActionDenied,
				OldValue:  map[string]any{"approval_level": approval.ApprovalLevel, "approval_role": string(approval.ApprovalRole)},
				NewValue:  map[string]any{"status": string(domain.ApprovalStatusDenied), "reason": reason},
				CreatedBy: actor.UserID,
			},
			statusChangeEntry(actor.UserID, ticket.Status, domain.TicketStatusDenied, reason),
		}
	}

	if err := s.approvals.DecideGuarded(ctx, decision); err != nil {
		return nil, mapGuardedError(err, "approval", approval.ID)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventApprovalDecided,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.UserID},
		Payload: events.ApprovalDecidedPayload{
			ApprovalID:    approval.ID,
			ApprovalLevel: approval.ApprovalLevel,
			ApprovalRole:  approval.ApprovalRole,
			Decision:      input.Decision,
			NewStatus:     decision.TicketTo,
		},
	})

	updated, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}

// ListByTicket returns the full chain ordered by level.
func (s *ApprovalService) ListByTicket(ctx context.Context, actor workflow.Actor, ticketID string) ([]domain.Approval, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.approvals.ListByTicket(ctx, ticketID)
}

// lowestPendingLevel returns the smallest pending level in the chain, or 0
// when nothing is pending.
func lowestPendingLevel(chain []domain.Approval) int {
	lowest := 0
	for _, approval := range chain {
		if approval.Status != domain.ApprovalStatusPending {
			continue
		}
		if lowest == 0 || approval.ApprovalLevel < lowest {
			lowest = approval.ApprovalLevel
		}
	}
	return lowest
}

// nextStatusAfter resolves where the ticket goes once the given level is
// approved: the next level's awaiting status, or triage when the chain is
// exhausted.
func nextStatusAfter(chain []domain.Approval, approvedLevel int) domain.TicketStatus {
	for _, approval := range chain {
		if approval.ApprovalLevel == approvedLevel+1 {
			return domain.AwaitingApprovalStatus(approval.ApprovalRole)
		}
	}
	return domain.TicketStatusAwaitingTriage
}
