package repository

import (
	"context"
	"fmt"
	"time"

	viewingserrors "roombook/internal/viewings/errors"
	"roombook/pkg/config"
	"roombook/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Room_locks"

// ReleaseFunc gives the lock back. It only removes the lock it was issued for.
type ReleaseFunc func(ctx context.Context) error

// RoomLocker serialises writes per room so the overlap check and the write
// cannot interleave with another request for the same room.
type RoomLocker interface {
	Acquire(ctx context.Context, roomID string) (ReleaseFunc, error)
}

func NewRoomLocker(cfg *config.Config) RoomLocker {
	if cfg.LockBackend == config.LockBackendRedis {
		return NewRedisRoomLocker(cfg.Client.Redis, cfg.LockTTL)
	}
	return NewMongoRoomLocker(cfg)
}

type mongoRoomLocker struct {
	collection *mongo.Collection
	ttl        time.Duration
	now        func() time.Time
}

func NewMongoRoomLocker(cfg *config.Config) RoomLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomLocker{
		collection: db.Collection(LockCollectionName),
		ttl:        cfg.LockTTL,
		now:        time.Now,
	}
}

func roomLockID(roomID string) string {
	return "room_lock_" + roomID
}

// Acquire inserts the lock document. A duplicate key means someone holds it;
// an expired holder is evicted once before giving up, since the TTL monitor
// only sweeps about once a minute.
func (l *mongoRoomLocker) Acquire(ctx context.Context, roomID string) (ReleaseFunc, error) {
	now := l.now()
	lock := &model.RoomLock{
		ID:        roomLockID(roomID),
		RoomID:    roomID,
		Owner:     uuid.NewString(),
		ExpiresAt: now.Add(l.ttl),
		CreatedAt: now,
	}

	err := l.insert(ctx, lock)
	if mongo.IsDuplicateKeyError(err) {
		evicted, evictErr := l.collection.DeleteOne(ctx, bson.M{
			"_id":        lock.ID,
			"expires_at": bson.M{"$lt": now},
		})
		if evictErr != nil {
			return nil, fmt.Errorf("failed to evict expired room lock: %w", evictErr)
		}
		if evicted.DeletedCount == 0 {
			return nil, viewingserrors.ErrRoomLocked
		}
		err = l.insert(ctx, lock)
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, viewingserrors.ErrRoomLocked
		}
		return nil, fmt.Errorf("failed to acquire room lock: %w", err)
	}

	return func(ctx context.Context) error {
		_, err := l.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "owner": lock.Owner})
		return err
	}, nil
}

func (l *mongoRoomLocker) insert(ctx context.Context, lock *model.RoomLock) error {
	_, err := l.collection.InsertOne(ctx, lock)
	return err
}
