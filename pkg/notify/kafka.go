package notify

import (
	"context"

	"parkspot/pkg/kafka"
	"parkspot/pkg/logger"
)

// KafkaSink publishes marketplace events to the event topic. Failures
// are logged and swallowed: subscribers are best-effort, the request
// that produced the event must not fail because the broker is down.
type KafkaSink struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaSink(producer *kafka.Producer, log *logger.Logger) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		log:      log,
	}
}

func (s *KafkaSink) Broadcast(ctx context.Context, event Event) {
	msg := kafka.NewMessage().
		WithKey(event.Type + ":" + event.ID).
		WithValue(event).
		WithEventID(event.ID).
		WithEventType(event.Type).
		WithSource("parkspot").
		Build()

	if err := s.producer.Publish(ctx, msg); err != nil {
		s.log.Error("Failed to publish event to Kafka",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err,
		)
	}
}
