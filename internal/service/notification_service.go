package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/andomingos87/garageinn-helpdesk/internal/config"
	"github.com/andomingos87/garageinn-helpdesk/internal/events"
)

// NotificationService reacts to workflow events. Delivery is stubbed;
// only the event fan-out and payload shaping live here.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent("TicketCreated"))
	n.dispatcher.Subscribe(events.EventApprovalDecided, n.handleEvent("ApprovalDecided"))
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleEvent("TicketStatusChanged"))
	n.dispatcher.Subscribe(events.EventTicketTriaged, n.handleEvent("TicketTriaged"))
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleEvent("CommentAdded"))
}

func (n *NotificationService) handleEvent(name string) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		n.logger.Info(name,
			zap.String("ticket_id", event.TicketID),
			zap.String("actor", event.Actor.UserID),
			zap.Any("payload", event.Payload))
		n.sendWebhookStub(ctx, event)
		return nil
	}
}

func (n *NotificationService) sendWebhookStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
