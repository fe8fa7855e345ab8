package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EnvelopeVersion is written on every new event. Consumers switch on it
// before decoding Data.
const EnvelopeVersion = 1

// ActorRef identifies who produced the event. OperatorID is the gateway
// asserted operator; Service names the process when no operator is involved.
type ActorRef struct {
	OperatorID string `json:"operatorId,omitempty"`
	Service    string `json:"service,omitempty"`
}

// PayloadEnvelope is the wire shape of outbox_events.payload. The publisher
// forwards it to the broker byte for byte.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// Validate rejects envelopes a consumer could not act on.
func (e PayloadEnvelope) Validate() error {
	if e.Version <= 0 {
		return fmt.Errorf("envelope version %d unsupported", e.Version)
	}
	if e.EventID == "" {
		return errors.New("envelope missing eventId")
	}
	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return errors.New("envelope missing data")
	}
	return nil
}

// DecodeEnvelope parses and validates a stored payload.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if err := env.Validate(); err != nil {
		return PayloadEnvelope{}, err
	}
	return env, nil
}

// OperatorActor builds an actor for an operator id, or nil when it is empty.
func OperatorActor(operatorID string) *ActorRef {
	if operatorID == "" {
		return nil
	}
	return &ActorRef{OperatorID: operatorID}
}

// ServiceActor attributes an event to a background process.
func ServiceActor(name string) *ActorRef {
	if name == "" {
		return nil
	}
	return &ActorRef{Service: name}
}
