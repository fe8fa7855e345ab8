package enums

// OutboxAggregateType maps to aggregate_type_enum.
type OutboxAggregateType string

const (
	AggregateVault      OutboxAggregateType = "vault"
	AggregateATMLoading OutboxAggregateType = "atm_loading"
)

var aggregateTypes = set[OutboxAggregateType]{AggregateVault, AggregateATMLoading}

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return aggregateTypes.parse("aggregate type", value)
}

// OutboxEventType maps to event_type_enum.
type OutboxEventType string

const (
	EventVaultReceived      OutboxEventType = "vault_received"
	EventVaultWithdrawn     OutboxEventType = "vault_withdrawn"
	EventATMLoadingCreated  OutboxEventType = "atm_loading_created"
	EventATMLoadingUpdated  OutboxEventType = "atm_loading_updated"
	EventATMLoadingDeleted  OutboxEventType = "atm_loading_deleted"
	EventVaultDriftDetected OutboxEventType = "vault_drift_detected"
)

// eventAggregates lists every event type with the aggregate it belongs to.
var eventAggregates = map[OutboxEventType]OutboxAggregateType{
	EventVaultReceived:      AggregateVault,
	EventVaultWithdrawn:     AggregateVault,
	EventVaultDriftDetected: AggregateVault,
	EventATMLoadingCreated:  AggregateATMLoading,
	EventATMLoadingUpdated:  AggregateATMLoading,
	EventATMLoadingDeleted:  AggregateATMLoading,
}

func (e OutboxEventType) IsValid() bool {
	_, ok := eventAggregates[e]
	return ok
}

// Aggregate is "" for unknown event types.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	return eventAggregates[e]
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	e := OutboxEventType(value)
	if !e.IsValid() {
		return "", invalid("event type", value)
	}
	return e, nil
}

// OutboxDLQErrorReason explains why an outbox row stopped being retried.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var dlqReasons = set[OutboxDLQErrorReason]{OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable}

func (r OutboxDLQErrorReason) IsValid() bool { return dlqReasons.has(r) }

func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	return dlqReasons.parse("dlq error reason", value)
}
