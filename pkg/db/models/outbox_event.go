package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/cashvault-backend/pkg/enums"
)

// OutboxEvent is a ledger event written in the same transaction as the
// movement it describes. AggregateID is text so it can carry the vault id or
// a loading uuid.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:event_type_enum;not null" json:"eventType"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:aggregate_type_enum;not null" json:"aggregateType"`
	AggregateID   string                    `gorm:"column:aggregate_id;not null" json:"aggregateId"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	PublishedAt   *time.Time                `gorm:"column:published_at" json:"publishedAt,omitempty"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0" json:"attemptCount"`
	LastError     *string                   `gorm:"column:last_error" json:"lastError,omitempty"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

// Published reports whether the publisher has delivered the event.
func (e OutboxEvent) Published() bool { return e.PublishedAt != nil }

// DeadLetter builds the DLQ row recording why e will not be retried.
func (e OutboxEvent) DeadLetter(reason enums.OutboxDLQErrorReason, cause error, failedAt time.Time) OutboxDLQ {
	entry := OutboxDLQ{
		EventID:       e.ID,
		EventType:     e.EventType,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		Payload:       e.Payload,
		ErrorReason:   reason,
		AttemptCount:  e.AttemptCount,
		FailedAt:      failedAt.UTC(),
	}
	if cause != nil {
		msg := cause.Error()
		entry.ErrorMessage = &msg
	}
	return entry
}
