package repository

import (
	"context"
	"fmt"
	"time"

	viewingserrors "roombook/internal/viewings/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisLockPrefix = "roombook:room_lock:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisRoomLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisRoomLocker(client redis.UniversalClient, ttl time.Duration) RoomLocker {
	return &redisRoomLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisRoomLocker) Acquire(ctx context.Context, roomID string) (ReleaseFunc, error) {
	key := redisLockPrefix + roomID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire room lock: %w", err)
	}
	if !ok {
		return nil, viewingserrors.ErrRoomLocked
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release room lock: %w", err)
		}
		return nil
	}, nil
}
