package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"

	"github.com/angelmondragon/cashvault-backend/pkg/config"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type dialFunc func(ctx context.Context, network, address string) (*kafka.Conn, error)

// KafkaPublisher writes to Kafka through a single topic-less writer; each
// message names its topic.
type KafkaPublisher struct {
	writer  messageWriter
	brokers []string
	topics  []string
	dial    dialFunc
}

var errNoBrokers = errors.New("kafka brokers are required")

// NewKafkaPublisher builds a hash-balanced writer so events of one
// aggregate land on one partition.
func NewKafkaPublisher(cfg config.KafkaConfig, topics []string) (*KafkaPublisher, error) {
	brokers := trimAll(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errNoBrokers
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: false,
		Transport: &kafka.Transport{
			ClientID: cfg.ClientID,
		},
	}
	return newKafkaPublisher(writer, brokers, topics), nil
}

func newKafkaPublisher(writer messageWriter, brokers, topics []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  writer,
		brokers: brokers,
		topics:  topics,
		dial:    kafka.DialContext,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.Topic) == "" {
		return errors.New("topic is required")
	}
	headers := make([]kafka.Header, 0, len(msg.Attributes))
	for k, v := range msg.Attributes {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   msg.Topic,
		Key:     []byte(msg.Key),
		Value:   msg.Data,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", msg.Topic, err)
	}
	return nil
}

// Ping succeeds once any broker answers and reports partitions for every
// topic. Otherwise it returns the error of each broker.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	var errs error
	for _, addr := range p.brokers {
		err := p.pingBroker(ctx, addr)
		if err == nil {
			return nil
		}
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (p *KafkaPublisher) pingBroker(ctx context.Context, addr string) error {
	conn, err := p.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	for _, topic := range p.topics {
		partitions, err := conn.ReadPartitions(topic)
		if err != nil {
			return fmt.Errorf("read partitions %s on %s: %w", topic, addr, err)
		}
		if len(partitions) == 0 {
			return fmt.Errorf("topic %q has no partitions on %s", topic, addr)
		}
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
