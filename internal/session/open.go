package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/amdadul/brandstore-crm/internal/db"
)

// Open builds the store named by a state DSN: redis:// and rediss:// select
// RedisStore, everything else goes through db.Open. The returned func closes
// the underlying connection.
func Open(ctx context.Context, dsn string) (Store, func() error, error) {
	if strings.HasPrefix(dsn, "redis://") || strings.HasPrefix(dsn, "rediss://") {
		opts, err := redis.ParseURL(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis DSN: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return NewRedisStore(client, ""), client.Close, nil
	}

	database, err := db.Open(ctx, dsn, db.SessionMigrations)
	if err != nil {
		return nil, nil, err
	}
	return NewSQLStore(database), database.Close, nil
}
