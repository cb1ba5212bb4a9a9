package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/workmesh/collab/internal/domain"
)

// RedisStore keeps cursors in one hash per document so every instance
// behind a load balancer sees the same presence state. Values are JSON;
// keys are expired after an idle TTL because cursor state is ephemeral
// and an instance that dies mid-session never removes its entries.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "cursor:",
		ttl:    12 * time.Hour,
	}
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) key(documentID string) string {
	return s.prefix + documentID
}

func (s *RedisStore) Upsert(ctx context.Context, c domain.Cursor) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}
	key := s.key(c.DocumentID)
	if err := s.client.HSet(ctx, key, string(c.UserID), data).Err(); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("refresh cursor ttl: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, documentID string, userID domain.UserID) error {
	if err := s.client.HDel(ctx, s.key(documentID), string(userID)).Err(); err != nil {
		return fmt.Errorf("remove cursor: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, documentID string) ([]domain.Cursor, error) {
	values, err := s.client.HGetAll(ctx, s.key(documentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list cursors: %w", err)
	}
	out := make([]domain.Cursor, 0, len(values))
	for _, raw := range values {
		var c domain.Cursor
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("unmarshal cursor: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}
