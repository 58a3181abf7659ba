package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/events"
	"github.com/andomingos87/garageinn-helpdesk/internal/repository"
	"github.com/andomingos87/garageinn-helpdesk/internal/workflow"
	apperrors "github.com/andomingos87/garageinn-helpdesk/pkg/util/errorutil"
)

// canOperate is the shared permission predicate for non-approval ticket
// operations: admins, the creator, and department members with an
// organizational rank.
func canOperate(actor workflow.Actor, role domain.Role, ticket *domain.Ticket) bool {
	if actor.IsAdmin {
		return true
	}
	if ticket.CreatedBy == actor.UserID {
		return true
	}
	return role != domain.RoleColaborador
}

func statusChangeEntry(userID string, oldStatus, newStatus domain.TicketStatus, reason string) *domain.TicketHistory {
	entry := &domain.TicketHistory{
		Action:    domain.ActionStatusChanged,
		OldValue:  map[string]any{"status": string(oldStatus)},
		NewValue:  map[string]any{"status": string(newStatus)},
		CreatedBy: userID,
	}
	if reason != "" {
		entry.NewValue["reason"] = reason
	}
	return entry
}

// mapGuardedError translates repository guard failures into domain errors.
func mapGuardedError(err error, resource, id string) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	case errors.Is(err, repository.ErrStaleStatus):
		return apperrors.NewConcurrencyConflict("state changed concurrently; re-read and retry", map[string]any{"id": id})
	case errors.Is(err, repository.ErrAlreadyDecided):
		return apperrors.NewConflict("approval already decided", map[string]any{"id": id})
	default:
		return apperrors.MapError(err)
	}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
