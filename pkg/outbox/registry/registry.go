// Package registry maps outbox event types to broker topics and typed
// payloads.
package registry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/angelmondragon/cashvault-backend/pkg/config"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	"github.com/angelmondragon/cashvault-backend/pkg/outbox"
	"github.com/angelmondragon/cashvault-backend/pkg/outbox/payloads"
)

type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is a stored row with its envelope and typed payload decoded.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row that will fail the same way on every attempt.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func nonRetryable(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

func payloadOf[T any]() func() any {
	return func() any { return new(T) }
}

// NewEventRegistry wires every ledger event to its configured topic.
func NewEventRegistry(cfg config.TopicsConfig) (*EventRegistry, error) {
	for name, topic := range map[string]string{
		"vault":          cfg.Vault,
		"atm loading":    cfg.ATMLoading,
		"reconciliation": cfg.Reconciliation,
	} {
		if topic == "" {
			return nil, fmt.Errorf("%s topic is required", name)
		}
	}

	descriptors := []EventDescriptor{
		{enums.EventVaultReceived, enums.AggregateVault, cfg.Vault, payloadOf[payloads.VaultMovementEvent]()},
		{enums.EventVaultWithdrawn, enums.AggregateVault, cfg.Vault, payloadOf[payloads.VaultMovementEvent]()},
		{enums.EventATMLoadingCreated, enums.AggregateATMLoading, cfg.ATMLoading, payloadOf[payloads.ATMLoadingCreatedEvent]()},
		{enums.EventATMLoadingUpdated, enums.AggregateATMLoading, cfg.ATMLoading, payloadOf[payloads.ATMLoadingUpdatedEvent]()},
		{enums.EventATMLoadingDeleted, enums.AggregateATMLoading, cfg.ATMLoading, payloadOf[payloads.ATMLoadingDeletedEvent]()},
		{enums.EventVaultDriftDetected, enums.AggregateVault, cfg.Reconciliation, payloadOf[payloads.VaultDriftDetectedEvent]()},
	}
	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, desc := range descriptors {
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

// Describe returns the descriptor registered for eventType.
func (r *EventRegistry) Describe(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	desc, ok := r.entries[eventType]
	return desc, ok
}

// Topics lists the distinct topics in sorted order.
func (r *EventRegistry) Topics() []string {
	seen := make(map[string]struct{}, len(r.entries))
	topics := make([]string, 0, len(r.entries))
	for _, desc := range r.entries {
		if _, dup := seen[desc.Topic]; dup {
			continue
		}
		seen[desc.Topic] = struct{}{}
		topics = append(topics, desc.Topic)
	}
	sort.Strings(topics)
	return topics
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every failure is non-retryable: the stored bytes will not change.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.Describe(event.EventType)
	if !ok {
		return nil, nonRetryable("unsupported event type %s", event.EventType)
	}
	if desc.AggregateType != event.AggregateType {
		return nil, nonRetryable("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	}
	if event.AggregateID == "" {
		return nil, nonRetryable("missing aggregate_id")
	}

	env, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, nonRetryable("%s: %w", event.EventType, err)
	}
	payload := desc.PayloadFactory()
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return nil, nonRetryable("decode %s payload: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: env, Payload: payload}, nil
}
