package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wastereport/internal/config"
	"wastereport/internal/models"
	contextutils "wastereport/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListNotifications_NewestFirstLimited(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewNotificationService(db, createTestLogger())
	now := time.Now()

	mock.ExpectQuery(`SELECT id, user_id, message, is_read, created_at\s+FROM notifications\s+WHERE user_id = \$1\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$2`).
		WithArgs(7, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "message", "is_read", "created_at"}).
			AddRow(2, 7, "You have been assigned to complaint #5", false, now).
			AddRow(1, 7, "You have been assigned to complaint #4", true, now.Add(-time.Hour)))

	notifications, err := service.ListNotifications(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, 2, notifications[0].ID)
	assert.True(t, notifications[1].IsRead)
}

func TestListNotifications_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewNotificationService(db, createTestLogger())

	mock.ExpectQuery(`FROM notifications`).
		WithArgs(8, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "message", "is_read", "created_at"}))

	notifications, err := service.ListNotifications(context.Background(), 8)
	require.NoError(t, err)
	assert.NotNil(t, notifications)
	assert.Empty(t, notifications)
}

func TestMarkNotificationRead(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewNotificationService(db, createTestLogger())

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE id = \$1 AND user_id = \$2`).
		WithArgs(3, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, service.MarkNotificationRead(context.Background(), 7, 3))

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE`).
		WithArgs(3, 8).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := service.MarkNotificationRead(context.Background(), 8, 3)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrRecordNotFound))
}

type fakeRedisClient struct {
	channel string
	message interface{}
	err     error
	closed  bool
}

func (f *fakeRedisClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message = message
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func (f *fakeRedisClient) Close() error {
	f.closed = true
	return nil
}

func TestRedisNotificationPublisher_Publish(t *testing.T) {
	client := &fakeRedisClient{}
	publisher := NewRedisNotificationPublisher(client, createTestLogger())

	err := publisher.Publish(context.Background(), models.Notification{ID: 9, UserID: 7, Message: "You have been assigned to complaint #3"})
	require.NoError(t, err)
	assert.Equal(t, "notifications:7", client.channel)

	var decoded models.Notification
	require.NoError(t, json.Unmarshal([]byte(client.message.(string)), &decoded))
	assert.Equal(t, 9, decoded.ID)
	assert.Equal(t, "You have been assigned to complaint #3", decoded.Message)

	require.NoError(t, publisher.Close())
	assert.True(t, client.closed)
}

func TestRedisNotificationPublisher_Error(t *testing.T) {
	publisher := NewRedisNotificationPublisher(&fakeRedisClient{err: errors.New("connection refused")}, createTestLogger())

	err := publisher.Publish(context.Background(), models.Notification{UserID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notifications:1")
}

func TestNewNotificationPublisher_NoAddrIsNoop(t *testing.T) {
	publisher, err := NewNotificationPublisher(context.Background(), configRedis(""), createTestLogger())
	require.NoError(t, err)
	assert.IsType(t, NoopNotificationPublisher{}, publisher)
	assert.NoError(t, publisher.Publish(context.Background(), models.Notification{}))
	assert.NoError(t, publisher.Close())
}

func configRedis(addr string) config.RedisConfig {
	return config.RedisConfig{Addr: addr}
}
