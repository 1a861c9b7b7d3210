package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"roomly/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu       sync.Mutex
	err      error
	messages []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("room-5").
		WithValue(map[string]string{"id": "b1"}).
		WithEventType("booking.created").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if msg.GetEventID() == "" {
		t.Error("Build() should generate an event id")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("Build() should set the timestamp header")
	}

	var decoded map[string]string
	if err := msg.DecodeValue(&decoded); err != nil || decoded["id"] != "b1" {
		t.Errorf("DecodeValue() = %v, %v", decoded, err)
	}
}

func TestMessageBuilder_ReportsEncodingError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if err == nil {
		t.Fatal("expected encoding error")
	}
}

func TestRetryCountRoundTrip(t *testing.T) {
	msg := Message{}
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("GetRetryCount() = %d, want 12", got)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{errors.New("I/O Timeout"), ErrorTypeTransient},
		{NewTransientError("db down", nil), ErrorTypeTransient},
		{NewPermanentError("bad payload", nil), ErrorTypePermanent},
		{errors.New("something odd"), ErrorTypePermanent},
		{nil, ErrorTypeUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestProducerPublish_DivertsToDLQOnFailure(t *testing.T) {
	primary := &fakeWriter{err: errors.New("broker unavailable")}
	dlq := &fakeWriter{}
	p := &Producer{writer: primary, dlqWriter: dlq, topic: "booking-events", dlqTopic: "booking-events-dlq", log: logger.Discard()}

	msg, _ := NewMessage().WithKey("5").WithValue("x").Build()
	if err := p.Publish(context.Background(), msg); err == nil {
		t.Fatal("expected the primary write error to surface")
	}
	if len(dlq.messages) != 1 {
		t.Fatalf("expected 1 DLQ message, got %d", len(dlq.messages))
	}
	if got := headerValue(dlq.messages[0], HeaderOriginalTopic); got != "booking-events" {
		t.Errorf("original-topic header = %q", got)
	}
	if msg.Headers[HeaderDLQError] != "" {
		t.Error("DLQ metadata must not leak into the caller's message headers")
	}
}

func TestProducerPublish_Validation(t *testing.T) {
	p := &Producer{writer: &fakeWriter{}, topic: "t", log: logger.Discard()}

	if err := p.Publish(context.Background(), Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}

	_ = p.Close()
	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
}

func TestConsumerProcessMessage(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantDLQ   int
	}{
		{name: "success first try", failures: 0, wantCalls: 1},
		{name: "transient then success", failures: 2, failWith: NewTransientError("flaky", nil), wantCalls: 3},
		{name: "transient exhausts retries", failures: 10, failWith: NewTransientError("down", nil), wantCalls: 4, wantDLQ: 1},
		{name: "permanent goes straight to DLQ", failures: 10, failWith: NewPermanentError("bad", nil), wantCalls: 1, wantDLQ: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			dlq := &fakeWriter{}
			c := &Consumer{
				dlqWriter:  dlq,
				topic:      "booking-events",
				groupID:    "booking-audit",
				maxRetries: 3,
				log:        logger.Discard(),
				handler: func(ctx context.Context, msg Message) error {
					calls++
					if calls <= tt.failures {
						return tt.failWith
					}
					return nil
				},
			}

			msg, _ := NewMessage().WithKey("5").WithValue("x").Build()
			if err := c.processMessage(context.Background(), msg); err != nil {
				t.Fatalf("processMessage() error = %v", err)
			}
			if calls != tt.wantCalls {
				t.Errorf("handler calls = %d, want %d", calls, tt.wantCalls)
			}
			if len(dlq.messages) != tt.wantDLQ {
				t.Errorf("DLQ messages = %d, want %d", len(dlq.messages), tt.wantDLQ)
			}
			if tt.wantDLQ > 0 {
				if got := headerValue(dlq.messages[0], HeaderDLQGroup); got != "booking-audit" {
					t.Errorf("dlq-consumer-group header = %q", got)
				}
			}
		})
	}
}

func TestConsumerProcessMessage_NoDLQReturnsError(t *testing.T) {
	c := &Consumer{
		topic:      "booking-events",
		maxRetries: 0,
		log:        logger.Discard(),
		handler: func(ctx context.Context, msg Message) error {
			return NewPermanentError("bad", nil)
		},
	}
	msg, _ := NewMessage().WithKey("5").WithValue("x").Build()
	if err := c.processMessage(context.Background(), msg); err == nil {
		t.Error("expected handler error without a DLQ")
	}
}
