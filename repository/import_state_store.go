package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pos-service/models"
)

// RedisImportStateStore keeps each user's import state under bulk_import:state:<user>.
// An expired or missing key reads as ImportIdle.
type RedisImportStateStore struct {
	client *redis.Client
}

func NewRedisImportStateStore(client *redis.Client) *RedisImportStateStore {
	return &RedisImportStateStore{client: client}
}

func importStateKey(userID string) string {
	return fmt.Sprintf("bulk_import:state:%s", userID)
}

func (s *RedisImportStateStore) Get(ctx context.Context, userID string) (models.ImportState, error) {
	data, err := s.client.Get(ctx, importStateKey(userID)).Bytes()
	if err == redis.Nil {
		return models.ImportIdle{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get import state: %w", err)
	}
	return models.UnmarshalImportState(data)
}

func (s *RedisImportStateStore) Set(ctx context.Context, userID string, state models.ImportState, ttl time.Duration) error {
	data, err := models.MarshalImportState(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, importStateKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("set import state: %w", err)
	}
	return nil
}

func (s *RedisImportStateStore) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, importStateKey(userID)).Err()
}
