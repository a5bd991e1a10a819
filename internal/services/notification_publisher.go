package services

import (
	"context"
	"encoding/json"
	"fmt"

	"wastereport/internal/config"
	"wastereport/internal/models"
	"wastereport/internal/observability"
	contextutils "wastereport/internal/utils"

	"github.com/redis/go-redis/v9"
)

// NotificationPublisher pushes freshly committed notifications to live subscribers
type NotificationPublisher interface {
	Publish(ctx context.Context, notification models.Notification) error
	Close() error
}

// redisPublishClient is the subset of the go-redis client the publisher needs
type redisPublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisNotificationPublisher publishes notifications as JSON on notifications:<user_id>
type RedisNotificationPublisher struct {
	client redisPublishClient
	logger *observability.Logger
}

// NewRedisNotificationPublisher creates a publisher over a connected go-redis client
func NewRedisNotificationPublisher(client redisPublishClient, logger *observability.Logger) *RedisNotificationPublisher {
	return &RedisNotificationPublisher{
		client: client,
		logger: logger,
	}
}

// NotificationChannel returns the pub/sub channel for a user's notifications
func NotificationChannel(userID int) string {
	return fmt.Sprintf("%s%d", config.NotificationChannelPrefix, userID)
}

// Publish sends the notification to the user's channel
func (p *RedisNotificationPublisher) Publish(ctx context.Context, notification models.Notification) (err error) {
	ctx, span := observability.TraceNotificationFunction(ctx, "publish_notification",
		observability.AttributeUserID(notification.UserID),
	)
	defer observability.FinishSpan(span, &err)

	payload, err := json.Marshal(notification)
	if err != nil {
		return contextutils.WrapError(err, "failed to encode notification")
	}

	channel := NotificationChannel(notification.UserID)
	receivers, err := p.client.Publish(ctx, channel, string(payload)).Result()
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to publish notification to %s", channel)
	}

	p.logger.Debug(ctx, "Notification published", map[string]interface{}{
		"channel":   channel,
		"receivers": receivers,
	})
	return nil
}

// Close releases the underlying redis connection pool
func (p *RedisNotificationPublisher) Close() error {
	return p.client.Close()
}

// NoopNotificationPublisher is used when no redis address is configured
type NoopNotificationPublisher struct{}

// Publish does nothing
func (NoopNotificationPublisher) Publish(context.Context, models.Notification) error { return nil }

// Close does nothing
func (NoopNotificationPublisher) Close() error { return nil }

// NewNotificationPublisher connects to redis when configured and falls back to a no-op publisher
func NewNotificationPublisher(ctx context.Context, cfg config.RedisConfig, logger *observability.Logger) (NotificationPublisher, error) {
	if cfg.Addr == "" {
		logger.Info(ctx, "Redis not configured, notifications will not be published")
		return NoopNotificationPublisher{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, contextutils.WrapErrorf(err, "failed to connect to redis at %s", cfg.Addr)
	}

	logger.Info(ctx, "Redis notification publisher connected", map[string]interface{}{"addr": cfg.Addr, "db": cfg.DB})
	return NewRedisNotificationPublisher(client, logger), nil
}
