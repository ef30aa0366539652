package events

import (
	"context"
	"time"

	"visitorpass/pkg/kafka"
	"visitorpass/pkg/logger"
	"visitorpass/pkg/model"
)

const (
	EventPassCreated  = "pass.created"
	EventPassesSwept  = "passes.swept"
	sourceVisitorPass = "visitor-pass"
)

// Publisher emits pass lifecycle events. Implementations never fail the
// caller; delivery problems are logged.
type Publisher interface {
	PassCreated(ctx context.Context, pass model.Pass)
	PassesSwept(ctx context.Context, removed int, at time.Time)
	Close() error
}

type PassCreatedEvent struct {
	Key       string    `json:"key"`
	RequestID string    `json:"requestId"`
	CreatedAt time.Time `json:"createdAt"`
	ValidFrom time.Time `json:"validFrom"`
	ValidTo   time.Time `json:"expiresAt"`
}

type PassesSweptEvent struct {
	Removed int       `json:"removed"`
	SweptAt time.Time `json:"sweptAt"`
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PassCreated(context.Context, model.Pass) {}

func (noopPublisher) PassesSwept(context.Context, int, time.Time) {}

func (noopPublisher) Close() error { return nil }

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	producer messagePublisher
	timeout  time.Duration
	log      *logger.Logger
}

// NewKafkaPublisher publishes through producer, bounding each write by
// timeout.
func NewKafkaPublisher(producer messagePublisher, timeout time.Duration, log *logger.Logger) Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &kafkaPublisher{
		producer: producer,
		timeout:  timeout,
		log:      log,
	}
}

func (p *kafkaPublisher) PassCreated(ctx context.Context, pass model.Pass) {
	msg, err := kafka.NewMessage().
		WithKey(pass.ID).
		WithValue(PassCreatedEvent{
			Key:       pass.ID,
			RequestID: pass.RequestID,
			CreatedAt: pass.CreatedAt,
			ValidFrom: pass.ValidFrom,
			ValidTo:   pass.ValidTo,
		}).
		WithTimestamp(pass.CreatedAt).
		WithEventType(EventPassCreated).
		WithCorrelationID(pass.RequestID).
		WithSource(sourceVisitorPass).
		Build()
	if err != nil {
		p.log.Error("Failed to build event", "event_type", EventPassCreated, "key", pass.ID, "error", err)
		return
	}
	p.publish(ctx, EventPassCreated, msg)
}

func (p *kafkaPublisher) PassesSwept(ctx context.Context, removed int, at time.Time) {
	msg, err := kafka.NewMessage().
		WithKey(EventPassesSwept).
		WithValue(PassesSweptEvent{Removed: removed, SweptAt: at}).
		WithTimestamp(at).
		WithEventType(EventPassesSwept).
		WithSource(sourceVisitorPass).
		Build()
	if err != nil {
		p.log.Error("Failed to build event", "event_type", EventPassesSwept, "error", err)
		return
	}
	p.publish(ctx, EventPassesSwept, msg)
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType string, msg kafka.Message) {
	// detach from the request so a finished response does not cancel the write
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish event",
			"event_type", eventType,
			"key", msg.Key,
			"error", err,
		)
		return
	}
	p.log.Debug("Event published", "event_type", eventType, "key", msg.Key)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}
