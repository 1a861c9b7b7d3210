package events

import (
	"context"
	"fmt"
	"time"

	"roomly/pkg/kafka"
	"roomly/pkg/middleware"
	"roomly/pkg/model"

	"github.com/google/uuid"
)

const (
	SchemaVersion = "1"
	Source        = "bookings"
)

// Publisher announces committed booking writes.
type Publisher interface {
	Publish(ctx context.Context, eventType string, booking *model.Booking) error
	Close() error
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	producer messagePublisher
	timeout  time.Duration
	now      func() time.Time
}

// NewKafkaPublisher publishes booking events keyed by room id, so the
// events of one room stay ordered on one partition.
func NewKafkaPublisher(producer *kafka.Producer, timeout time.Duration) Publisher {
	return &kafkaPublisher{producer: producer, timeout: timeout, now: time.Now}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, booking *model.Booking) error {
	event := &model.BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Booking:    booking,
		OccurredAt: p.now().UTC(),
	}

	msg, err := kafka.NewMessage().
		WithKey(booking.RoomID).
		WithValue(event).
		WithEventID(event.ID).
		WithEventType(eventType).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		return err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event for booking %s: %w", eventType, booking.ID, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher for deployments without a broker.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, *model.Booking) error { return nil }

func (noopPublisher) Close() error { return nil }
