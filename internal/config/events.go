package config

import (
	"log/slog"
	"strings"

	"github.com/quizcraft/generation-service/internal/events"
)

// EventConfig holds configuration for event publishing.
type EventConfig struct {
	Enabled      bool
	KafkaBrokers string
	Topic        string
}

// GetKafkaBrokers returns Kafka brokers as a slice.
func (c *EventConfig) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// CreateEventPublisher creates the configured event publisher, falling back
// to the in-process mock when publishing is disabled.
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	logger.Info("creating Kafka event publisher",
		"brokers", c.KafkaBrokers,
		"topic", c.Topic)

	return events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: c.GetKafkaBrokers(),
		TopicName:    c.Topic,
		Logger:       logger,
	})
}
