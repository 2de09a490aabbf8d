package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/amdadul/brandstore-crm/internal/model"
)

const defaultRedisKey = "brandstore:session"

// RedisStore keeps the session as one Redis hash that expires with the session.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store under key (defaults to "brandstore:session").
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Save(ctx context.Context, sess model.Session) error {
	values, err := encode(sess)
	if err != nil {
		return err
	}
	fields := make(map[string]interface{}, len(values))
	for k, v := range values {
		fields[k] = v
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, fields)
		pipe.ExpireAt(ctx, r.key, sess.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Read(ctx context.Context) (*model.Session, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	return decode(values)
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
