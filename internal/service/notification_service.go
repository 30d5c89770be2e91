package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-core/internal/config"
	"github.com/spec-kit/portal-core/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Events are logged and enqueued onto a Redis list that an external
// delivery worker drains.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	queue      *redis.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, queue *redis.Client) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		queue:      queue,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketResponded, n.handleTicketResponded)
	n.dispatcher.Subscribe(events.EventSubUserCreated, n.handleSubUserCreated)
	n.dispatcher.Subscribe(events.EventPlanChanged, n.handlePlanChanged)
	n.dispatcher.Subscribe(events.EventSubscriptionExpired, n.handleSubscriptionExpired)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.EntityID), zap.Any("payload", event.Payload))
	n.enqueue(ctx, event)
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketResponded(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketResponded", zap.String("ticket_id", event.EntityID), zap.Any("payload", event.Payload))
	n.enqueue(ctx, event)
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSubUserCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("SubUserCreated", zap.String("account_id", event.EntityID), zap.Any("payload", event.Payload))
	n.enqueue(ctx, event)
	return nil
}

func (n *NotificationService) handlePlanChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("PlanChanged", zap.String("account_id", event.EntityID), zap.Any("payload", event.Payload))
	n.enqueue(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSubscriptionExpired(ctx context.Context, event events.Event) error {
	n.logger.Info("SubscriptionExpired", zap.String("account_id", event.EntityID), zap.Any("payload", event.Payload))
	n.enqueue(ctx, event)
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) enqueue(ctx context.Context, event events.Event) {
	if n.queue == nil || n.cfg.QueueKey == "" {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("marshal notification", zap.Error(err))
		return
	}
	if err := n.queue.RPush(ctx, n.cfg.QueueKey, body).Err(); err != nil {
		n.logger.Warn("enqueue notification", zap.Error(err))
	}
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("entity_id", event.EntityID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("entity_id", event.EntityID),
		zap.String("event_type", string(event.Type)))
}
