// Package broker publishes outbox events to Kafka or GCP Pub/Sub.
package broker

import (
	"context"
	"fmt"

	"github.com/angelmondragon/cashvault-backend/pkg/config"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	"github.com/angelmondragon/cashvault-backend/pkg/logger"
)

// Message is one event ready for the wire. Key orders messages of the same
// aggregate on Kafka and is the ordering key on Pub/Sub.
type Message struct {
	Topic      string
	Key        string
	Data       []byte
	Attributes map[string]string
}

// Publisher sends messages to a broker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Ping(ctx context.Context) error
	Close() error
}

// New builds the publisher selected by cfg.Broker.Kind, wrapped in a
// circuit breaker. topics are checked by Ping.
func New(ctx context.Context, cfg *config.Config, topics []string, logg *logger.Logger) (Publisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.ValidateBroker(); err != nil {
		return nil, err
	}

	kind, err := enums.ParseBrokerKind(cfg.Broker.Kind)
	if err != nil {
		return nil, err
	}

	var pub Publisher
	switch kind {
	case enums.BrokerKafka:
		pub, err = NewKafkaPublisher(cfg.Kafka, topics)
	case enums.BrokerPubSub:
		pub, err = NewPubSubPublisher(ctx, cfg.GCP, topics)
	}
	if err != nil {
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "broker_kind", string(kind)), "broker publisher initialized")
	}
	return NewBreaker(pub, cfg.Broker, logg), nil
}
