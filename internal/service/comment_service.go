package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/events"
	"github.com/andomingos87/garageinn-helpdesk/internal/persistence"
	"github.com/andomingos87/garageinn-helpdesk/internal/repository"
	"github.com/andomingos87/garageinn-helpdesk/internal/workflow"
	apperrors "github.com/andomingos87/garageinn-helpdesk/pkg/util/errorutil"
)

const commentCountTTL = 5 * time.Minute

// CommentService manages ticket comments. Counts are cached in redis and
// invalidated on write; a cache miss or unreachable redis falls back to
// the database.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	roles      workflow.RoleProvider
	cache      *persistence.Redis
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.CommentRepository, tickets repository.TicketRepository, history repository.TicketHistoryRepository, roles workflow.RoleProvider, cache *persistence.Redis, dispatcher events.Dispatcher, logger *zap.Logger) *CommentService {
	return &CommentService{
		comments:   comments,
		tickets:    tickets,
		history:    history,
		roles:      roles,
		cache:      cache,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// AddComment appends a comment and its "commented" history entry. Internal
// comments require a department rank or admin.
func (s *CommentService) AddComment(ctx context.Context, actor workflow.Actor, ticketID, content string, isInternal bool) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	role, err := s.roles.GetActorRole(ctx, actor.UserID, ticket.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if isInternal && !actor.IsAdmin && role == domain.RoleColaborador {
		return nil, apperrors.NewForbidden("internal comments require a department rank")
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		Content:    content,
		IsInternal: isInternal,
		CreatedBy:  actor.UserID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	entry := &domain.TicketHistory{
		TicketID:  ticket.ID,
		Action:    domain.ActionCommented,
		NewValue:  map[string]any{"comment_id": comment.ID, "is_internal": isInternal},
		CreatedBy: actor.UserID,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.invalidateCount(ctx, ticket.ID)

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.UserID},
		Payload: events.CommentAddedPayload{
			CommentID:  comment.ID,
			IsInternal: isInternal,
			Preview:    preview(content, 120),
		},
	})
	return comment, nil
}

// ListComments returns a ticket's comments. Internal comments are only
// included for admins and department members with a rank.
func (s *CommentService) ListComments(ctx context.Context, actor workflow.Actor, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	role, err := s.roles.GetActorRole(ctx, actor.UserID, ticket.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	includeInternal := actor.IsAdmin || role != domain.RoleColaborador
	return s.comments.ListByTicket(ctx, ticketID, includeInternal)
}

// CountComments returns the comment count, served from cache when warm.
func (s *CommentService) CountComments(ctx context.Context, ticketID string) (int64, error) {
	key := commentCountKey(ticketID)
	if s.cache != nil && s.cache.Client != nil {
		if raw, err := s.cache.Client.Get(ctx, key).Result(); err == nil {
			if count, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return count, nil
			}
		}
	}

	count, err := s.comments.CountByTicket(ctx, ticketID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if s.cache != nil && s.cache.Client != nil {
		if err := s.cache.Client.Set(ctx, key, strconv.FormatInt(count, 10), commentCountTTL).Err(); err != nil {
			s.logger.Debug("comment count cache set failed", zap.Error(err))
		}
	}
	return count, nil
}

func (s *CommentService) invalidateCount(ctx context.Context, ticketID string) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	if err := s.cache.Client.Del(ctx, commentCountKey(ticketID)).Err(); err != nil {
		s.logger.Debug("comment count cache invalidation failed", zap.Error(err))
	}
}

func commentCountKey(ticketID string) string {
	return fmt.Sprintf("ticket:%s:comment_count", ticketID)
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
