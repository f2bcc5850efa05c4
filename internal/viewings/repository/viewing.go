package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	viewingserrors "roombook/internal/viewings/errors"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Viewings"

	// maxOverlapCandidates bounds the conflict lookup; one hit is enough to reject.
	maxOverlapCandidates = 50
)

type ViewingRepository interface {
	Create(ctx context.Context, viewing *model.Viewing) error
	FindByID(ctx context.Context, id string) (*model.Viewing, error)
	Update(ctx context.Context, id string, viewing *model.Viewing) error
	Delete(ctx context.Context, id string) error
	FindByRoom(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Viewing, error)
	CountByRoom(ctx context.Context, roomID string, from, to *time.Time) (int64, error)
	FindOverlapping(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]*model.Viewing, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoViewingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoViewingRepository(cfg *config.Config) ViewingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoViewingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout bounds ctx unless it is a transaction's SessionContext, which
// cannot be wrapped without losing the session.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoViewingRepository) Create(ctx context.Context, viewing *model.Viewing) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	viewing.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, viewing)
	if err != nil {
		return fmt.Errorf("failed to create viewing: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		viewing.ID = oid.Hex()
	}
	return nil
}

func (r *mongoViewingRepository) FindByID(ctx context.Context, id string) (*model.Viewing, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", viewingserrors.ErrInvalidID, id)
	}

	var viewing model.Viewing
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&viewing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, viewingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find viewing: %w", err)
	}

	return &viewing, nil
}

func (r *mongoViewingRepository) Update(ctx context.Context, id string, viewing *model.Viewing) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", viewingserrors.ErrInvalidID, id)
	}

	viewing.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"room_id":    viewing.RoomID,
			"start_time": viewing.StartTime,
			"length":     viewing.Length,
			"end_time":   viewing.EndTime,
			"updated_at": viewing.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update viewing: %w", err)
	}
	if result.MatchedCount == 0 {
		return viewingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoViewingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", viewingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete viewing: %w", err)
	}
	if result.DeletedCount == 0 {
		return viewingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoViewingRepository) FindByRoom(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Viewing, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	return r.find(ctx, RangeFilter(roomID, from, to), opts)
}

func (r *mongoViewingRepository) CountByRoom(ctx context.Context, roomID string, from, to *time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, RangeFilter(roomID, from, to))
	if err != nil {
		return 0, fmt.Errorf("failed to count viewings: %w", err)
	}
	return count, nil
}

func (r *mongoViewingRepository) FindOverlapping(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]*model.Viewing, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(maxOverlapCandidates)

	return r.find(ctx, OverlapFilter(roomID, start, end, excludeID), opts)
}

func (r *mongoViewingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Viewing, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find viewings: %w", err)
	}
	defer cursor.Close(ctx)

	var viewings []*model.Viewing
	if err = cursor.All(ctx, &viewings); err != nil {
		return nil, fmt.Errorf("failed to decode viewings: %w", err)
	}
	return viewings, nil
}

func (r *mongoViewingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
