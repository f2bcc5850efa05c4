package events

import (
	"context"
	"time"

	"roombook/pkg/kafka"
	"roombook/pkg/middleware"
	"roombook/pkg/model"
)

const (
	TypeViewingCreated   = "viewing.created"
	TypeViewingUpdated   = "viewing.updated"
	TypeViewingCancelled = "viewing.cancelled"

	SchemaVersion = "1"
	Source        = "viewings"
)

type ViewingEvent struct {
	Type       string    `json:"type"`
	ViewingID  string    `json:"viewing_id"`
	RoomID     string    `json:"room_id"`
	UserID     string    `json:"user_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Length     int       `json:"length"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewViewingEvent(eventType string, v *model.Viewing, at time.Time) ViewingEvent {
	return ViewingEvent{
		Type:       eventType,
		ViewingID:  v.ID,
		RoomID:     v.RoomID,
		UserID:     v.UserID,
		StartTime:  v.StartTime,
		EndTime:    v.EndTime,
		Length:     v.Length,
		OccurredAt: at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event ViewingEvent) error
	Close() error
}

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	producer producer
}

// NewKafkaPublisher keys every event by room so a room's history stays ordered
// within one partition.
func NewKafkaPublisher(p producer) Publisher {
	return &kafkaPublisher{producer: p}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event ViewingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.RoomID).
		WithValue(event).
		WithEventType(event.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher is used when no brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, ViewingEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
