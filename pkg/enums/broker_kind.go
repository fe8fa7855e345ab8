package enums

import (
	"fmt"
	"strings"
)

// BrokerKind selects the transport used by the outbox publisher.
type BrokerKind string

const (
	BrokerKafka  BrokerKind = "kafka"
	BrokerPubSub BrokerKind = "pubsub"
)

// ParseBrokerKind converts raw config input into BrokerKind.
func ParseBrokerKind(value string) (BrokerKind, error) {
	switch k := BrokerKind(strings.ToLower(strings.TrimSpace(value))); k {
	case BrokerKafka, BrokerPubSub:
		return k, nil
	}
	return "", fmt.Errorf("invalid broker kind %q", value)
}
