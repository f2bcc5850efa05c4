package service

import (
	"context"
	"errors"
	"sync"
	"time"

	viewingserrors "roombook/internal/viewings/errors"
	"roombook/internal/viewings/events"
	"roombook/internal/viewings/metrics"
	"roombook/internal/viewings/repository"
	"roombook/internal/viewings/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	publishTimeout = 5 * time.Second

	// lockSafetyFraction reserves 1/5 of the lock TTL as headroom after the
	// locked work must have finished.
	lockSafetyFraction = 5

	// maxCalendarEvents caps a single calendar feed.
	maxCalendarEvents = 1000
)

type ViewingService interface {
	// Create and Update take inputErrs for request fields that could not be
	// decoded; they are reported together with every other failure.
	Create(ctx context.Context, viewing *model.Viewing, inputErrs ...validator.ValidationError) (*model.Viewing, error)
	Update(ctx context.Context, id string, updates *model.ViewingUpdate, inputErrs ...validator.ValidationError) (*model.Viewing, error)
	Cancel(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Viewing, error)
	ListByRoom(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Viewing, int64, error)
	CalendarEvent(ctx context.Context, id string) (*model.CalendarEvent, error)
	RoomCalendar(ctx context.Context, roomID string, from, to *time.Time) ([]model.CalendarEvent, error)
}

type Option func(*viewingService)

// WithClock replaces time.Now, which decides the lead-time rule.
func WithClock(now func() time.Time) Option {
	return func(s *viewingService) {
		s.now = now
	}
}

type viewingService struct {
	repo      repository.ViewingRepository
	locker    repository.RoomLocker
	validator *validator.ViewingValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewViewingService(
	repo repository.ViewingRepository,
	locker repository.RoomLocker,
	validator *validator.ViewingValidator,
	publisher events.Publisher,
	cfg *config.Config,
	opts ...Option,
) ViewingService {
	s := &viewingService{
		repo:      repo,
		locker:    locker,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *viewingService) Create(ctx context.Context, viewing *model.Viewing, inputErrs ...validator.ValidationError) (*model.Viewing, error) {
	if viewing == nil {
		return nil, apperrors.InvalidInput("Viewing cannot be empty")
	}

	candidate := normalize(*viewing)
	candidate.ID = ""
	now := s.now()

	if err := s.precheck(candidate, now, inputErrs); err != nil {
		return nil, err
	}

	var created *model.Viewing
	err := s.withRoomLock(ctx, candidate.RoomID, func(lockCtx context.Context) error {
		return s.repo.ExecuteTransaction(lockCtx, func(sessCtx mongo.SessionContext) error {
			validated, err := s.checkAgainstRoom(sessCtx, candidate, now)
			if err != nil {
				return err
			}
			if err := s.repo.Create(sessCtx, validated); err != nil {
				return apperrors.Internal("Failed to create viewing", err)
			}
			created = validated
			return nil
		})
	})
	if err != nil {
		s.logFailure("Failed to create viewing", err, "room_id", candidate.RoomID)
		return nil, err
	}

	metrics.IncViewingCreated()
	s.publish(ctx, events.TypeViewingCreated, created)
	s.cfg.Log.Info("Viewing created successfully",
		"id", created.ID,
		"room_id", created.RoomID,
		"user_id", created.UserID,
		"start_time", created.StartTime,
		"end_time", created.EndTime,
	)
	return created, nil
}

func (s *viewingService) Update(ctx context.Context, id string, updates *model.ViewingUpdate, inputErrs ...validator.ValidationError) (*model.Viewing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Viewing ID cannot be empty")
	}
	if updates.IsEmpty() && len(inputErrs) == 0 {
		return nil, apperrors.InvalidInput("No fields to update")
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	candidate := normalize(updates.Apply(*existing))
	candidate.ID = existing.ID
	now := s.now()

	if err := s.precheck(candidate, now, inputErrs); err != nil {
		return nil, err
	}

	var updated *model.Viewing
	err = s.withRoomLock(ctx, candidate.RoomID, func(lockCtx context.Context) error {
		return s.repo.ExecuteTransaction(lockCtx, func(sessCtx mongo.SessionContext) error {
			validated, err := s.checkAgainstRoom(sessCtx, candidate, now)
			if err != nil {
				return err
			}
			if err := s.repo.Update(sessCtx, id, validated); err != nil {
				if errors.Is(err, viewingserrors.ErrNotFound) {
					return apperrors.NotFoundWithID("Viewing", id)
				}
				return apperrors.Internal("Failed to update viewing", err)
			}
			updated = validated
			return nil
		})
	})
	if err != nil {
		s.logFailure("Failed to update viewing", err, "id", id)
		return nil, err
	}

	metrics.IncViewingUpdated()
	s.publish(ctx, events.TypeViewingUpdated, updated)
	s.cfg.Log.Info("Viewing updated successfully",
		"id", id,
		"room_id", updated.RoomID,
		"start_time", updated.StartTime,
		"end_time", updated.EndTime,
	)
	return updated, nil
}

func (s *viewingService) Cancel(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Viewing ID cannot be empty")
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, viewingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Viewing", id)
		}
		s.cfg.Log.Error("Failed to cancel viewing", "id", id, "error", err)
		return apperrors.Internal("Failed to cancel viewing", err)
	}

	metrics.IncViewingCancelled()
	s.publish(ctx, events.TypeViewingCancelled, existing)
	s.cfg.Log.Info("Viewing cancelled successfully", "id", id, "room_id", existing.RoomID)
	return nil
}

func (s *viewingService) GetByID(ctx context.Context, id string) (*model.Viewing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Viewing ID cannot be empty")
	}
	return s.find(ctx, id)
}

func (s *viewingService) ListByRoom(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Viewing, int64, error) {
	roomID = sanitizer.NormalizeID(roomID)
	if roomID == "" {
		return nil, 0, apperrors.InvalidInput("Room ID cannot be empty")
	}

	var count int64
	var viewings []*model.Viewing
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByRoom(ctx, roomID, from, to)
		if err != nil {
			s.cfg.Log.Error("Failed to count viewings", "room_id", roomID, "error", err)
			errCount = apperrors.Internal("Failed to count viewings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		viewings, err = s.repo.FindByRoom(ctx, roomID, from, to, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list viewings",
				"room_id", roomID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve viewings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return viewings, count, nil
}

func (s *viewingService) CalendarEvent(ctx context.Context, id string) (*model.CalendarEvent, error) {
	viewing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	event := validator.ToCalendarEvent(viewing)
	return &event, nil
}

func (s *viewingService) RoomCalendar(ctx context.Context, roomID string, from, to *time.Time) ([]model.CalendarEvent, error) {
	roomID = sanitizer.NormalizeID(roomID)
	if roomID == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	viewings, err := s.repo.FindByRoom(ctx, roomID, from, to, maxCalendarEvents, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to load room calendar", "room_id", roomID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve room calendar", err)
	}
	return validator.ToCalendarEvents(viewings), nil
}

// --- Helpers ---

// normalize trims identifiers and stores times in UTC at the precision Mongo keeps,
// so identical slots compare equal after a round trip.
func normalize(v model.Viewing) model.Viewing {
	v.RoomID = sanitizer.NormalizeID(v.RoomID)
	v.UserID = sanitizer.NormalizeID(v.UserID)
	if !v.StartTime.IsZero() {
		v.StartTime = v.StartTime.UTC().Truncate(time.Millisecond)
	}
	return v
}

func (s *viewingService) find(ctx context.Context, id string) (*model.Viewing, error) {
	viewing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, viewingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Viewing", id)
		}
		if errors.Is(err, viewingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid viewing ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve viewing", err)
	}
	return viewing, nil
}

// precheck rejects candidates without a room or a computable slot, or with
// unreadable input, before any lock is taken. Lead time and overlap are judged
// under the lock so that every failure is reported together.
func (s *viewingService) precheck(candidate model.Viewing, now time.Time, inputErrs validator.ValidationErrors) error {
	_, errs := s.validator.Validate(candidate, nil, now)
	errs = errs.Merge(inputErrs)
	if len(inputErrs) > 0 || errs.Has(viewingserrors.ErrMissingField) || errs.Has(viewingserrors.ErrInvalidLength) {
		return s.validationError(errs)
	}
	return nil
}

// checkAgainstRoom validates candidate against the room's stored viewings
// that could collide with it.
func (s *viewingService) checkAgainstRoom(ctx context.Context, candidate model.Viewing, now time.Time) (*model.Viewing, error) {
	end, _ := validator.CalculateEndTime(candidate.StartTime, candidate.Length)

	existing, err := s.repo.FindOverlapping(ctx, candidate.RoomID, candidate.StartTime, end, candidate.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to check existing viewings", err)
	}

	validated, errs := s.validator.Validate(candidate, existing, now)
	if len(errs) > 0 {
		return nil, s.validationError(errs)
	}
	return validated, nil
}

// lockBudget is how long a holder may work under the room lock. It ends before
// the lock itself expires so that no second writer can take the room while a
// check-then-commit is still in flight.
func (s *viewingService) lockBudget() time.Duration {
	ttl := s.cfg.LockTTL
	if ttl <= 0 {
		ttl = config.DefaultLockTTL
	}
	return ttl - ttl/lockSafetyFraction
}

// withRoomLock runs fn while holding roomID's lock. fn gets a context that
// expires before the lock does; work still running then is abandoned.
func (s *viewingService) withRoomLock(ctx context.Context, roomID string, fn func(lockCtx context.Context) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockBudget())
	defer cancel()

	release, err := s.locker.Acquire(lockCtx, roomID)
	if err != nil {
		if errors.Is(err, viewingserrors.ErrRoomLocked) {
			metrics.IncLockContention()
			return apperrors.Conflict("This room is currently being booked by another request. Please try again.")
		}
		return apperrors.Internal("Failed to acquire room lock", err)
	}
	defer func() {
		if releaseErr := release(context.WithoutCancel(ctx)); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release room lock", "room_id", roomID, "error", releaseErr)
		}
	}()

	err = fn(lockCtx)
	if err != nil && ctx.Err() == nil && errors.Is(lockCtx.Err(), context.DeadlineExceeded) {
		s.cfg.Log.Warn("Room lock budget exceeded", "room_id", roomID, "budget", s.lockBudget(), "error", err)
		return apperrors.Timeout("Booking did not complete in time. Please try again.")
	}
	return err
}

// validationError reports only-conflict failures as 409 and everything else as 422.
func (s *viewingService) validationError(errs validator.ValidationErrors) error {
	for _, e := range errs {
		metrics.IncValidationFailure(e.Code)
	}

	details := map[string]any{"errors": []validator.ValidationError(errs)}
	s.cfg.Log.Warn("Viewing validation failed", "error", errs.Error())

	if errs.OnlyConflicts() {
		return apperrors.Conflict("Slot has already been booked for viewing").
			WithDetails(details).
			WithCause(errs)
	}
	return apperrors.Validation("Viewing validation failed", details).WithCause(errs)
}

func (s *viewingService) publish(ctx context.Context, eventType string, viewing *model.Viewing) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, events.NewViewingEvent(eventType, viewing, s.now())); err != nil {
		metrics.IncEventPublishFailure(eventType)
		s.cfg.Log.Error("Failed to publish viewing event",
			"event_type", eventType,
			"id", viewing.ID,
			"error", err,
		)
	}
}

func (s *viewingService) logFailure(msg string, err error, attrs ...any) {
	if apperrors.AsAppError(err).StatusCode() < 500 {
		return
	}
	s.cfg.Log.Error(msg, append(attrs, "error", err)...)
}
