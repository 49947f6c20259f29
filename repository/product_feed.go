package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pos-service/models"
)

const changeChannelPrefix = "products:changed:"

// ChangeChannel is the pub/sub channel nudged whenever a user's products change.
func ChangeChannel(userID string) string {
	return changeChannelPrefix + userID
}

// RedisProductFeed turns change notifications on Redis pub/sub into full product
// snapshots read from the remote store. A periodic refresh covers missed messages.
type RedisProductFeed struct {
	client       *redis.Client
	store        ProductStore
	refreshEvery time.Duration
}

func NewRedisProductFeed(client *redis.Client, store ProductStore, refreshEvery time.Duration) *RedisProductFeed {
	if refreshEvery <= 0 {
		refreshEvery = 30 * time.Second
	}
	return &RedisProductFeed{client: client, store: store, refreshEvery: refreshEvery}
}

func (f *RedisProductFeed) NotifyChanged(ctx context.Context, userID string) error {
	stamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return f.client.Publish(ctx, ChangeChannel(userID), stamp).Err()
}

// Subscribe emits one snapshot right away and another after every change
// notification. Errors are emitted as snapshots and the stream keeps running.
func (f *RedisProductFeed) Subscribe(ctx context.Context, userID string) <-chan models.Snapshot {
	out := make(chan models.Snapshot, 1)

	go func() {
		defer close(out)

		pubsub := f.client.Subscribe(ctx, ChangeChannel(userID))
		defer func() {
			if err := pubsub.Close(); err != nil {
				zap.L().Warn("Failed to close product feed subscription", zap.String("user_id", userID), zap.Error(err))
			}
		}()

		if _, err := pubsub.Receive(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			zap.L().Warn("Product feed subscribe failed", zap.String("user_id", userID), zap.Error(err))
			if !f.send(ctx, out, models.Snapshot{Err: err}) {
				return
			}
		}

		messages := pubsub.Channel()
		ticker := time.NewTicker(f.refreshEvery)
		defer ticker.Stop()

		if !f.emit(ctx, out, userID) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				drain(messages)
				if !f.emit(ctx, out, userID) {
					return
				}
			case <-ticker.C:
				if !f.emit(ctx, out, userID) {
					return
				}
			}
		}
	}()

	return out
}

func (f *RedisProductFeed) emit(ctx context.Context, out chan<- models.Snapshot, userID string) bool {
	products, err := f.store.ListByUser(ctx, userID)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		zap.L().Warn("Product feed refresh failed", zap.String("user_id", userID), zap.Error(err))
		return f.send(ctx, out, models.Snapshot{Err: err})
	}
	return f.send(ctx, out, models.Snapshot{Products: products})
}

func (f *RedisProductFeed) send(ctx context.Context, out chan<- models.Snapshot, snap models.Snapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

// drain coalesces notifications that piled up while the last snapshot was built.
func drain(messages <-chan *redis.Message) {
	for {
		select {
		case _, ok := <-messages:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
