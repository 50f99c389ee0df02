package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/finalapps/orbit/internal/config"
	"github.com/finalapps/orbit/internal/events"
	"github.com/finalapps/orbit/internal/persistence"
)

// NotificationService bridges lifecycle events onto the realtime feed:
// every pipeline event is logged and published as JSON to a Redis channel
// so dashboards can subscribe without polling.
type NotificationService struct {
	redis  *persistence.Redis
	cfg    config.EventsConfig
	logger *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(redis *persistence.Redis, cfg config.EventsConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{redis: redis, cfg: cfg, logger: logger}
}

// Register subscribes to every pipeline event type.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventInquiryIngested,
		events.EventInquiryAssigned,
		events.EventInquiryReplied,
		events.EventInquiryEscalated,
		events.EventInquiryMissed,
	} {
		dispatcher.Subscribe(eventType, s.handle)
	}
}

func (s *NotificationService) handle(ctx context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("inquiry_id", event.InquiryID),
	}
	if event.OperatorID != nil {
		fields = append(fields, zap.String("operator_id", *event.OperatorID))
	}
	s.logger.Info("pipeline event", fields...)

	if s.redis == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("event marshal failed", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	channel := fmt.Sprintf("%s:events", s.cfg.ChannelPrefix)
	if err := s.redis.Publish(ctx, channel, payload); err != nil {
		// the feed is best-effort, the pipeline state is already durable
		s.logger.Warn("event publish failed", zap.String("channel", channel), zap.Error(err))
	}
	return nil
}
