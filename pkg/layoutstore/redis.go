package layoutstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-insights/components/insights"
)

// DefaultRedisPrefix namespaces layout keys.
const DefaultRedisPrefix = "insights:"

// RedisStore keeps one JSON record per scope in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ insights.LayoutStore = (*RedisStore)(nil)

// NewRedisStore wraps client. An empty prefix uses DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("layoutstore: redis client is required")
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(scope string) string {
	return s.prefix + insights.LayoutKey(scope)
}

// SaveLayout implements insights.LayoutStore.
func (s *RedisStore) SaveLayout(ctx context.Context, scope string, placements []insights.WidgetPlacement) error {
	if strings.TrimSpace(scope) == "" {
		return errors.New("layoutstore: scope is required")
	}
	data, err := insights.EncodeLayout(placements)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(scope), data, 0).Err(); err != nil {
		return fmt.Errorf("layoutstore: redis set: %w", err)
	}
	return nil
}

// LoadLayout implements insights.LayoutStore.
func (s *RedisStore) LoadLayout(ctx context.Context, scope string) ([]insights.WidgetPlacement, bool, error) {
	data, err := s.client.Get(ctx, s.key(scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("layoutstore: redis get: %w", err)
	}
	placements, err := insights.DecodeLayout(data)
	if err != nil {
		return nil, false, err
	}
	return placements, true, nil
}
