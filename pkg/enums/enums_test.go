package enums

import "testing"

func TestLoadingPhaseTransitions(t *testing.T) {
	tests := []struct {
		from LoadingPhase
		to   LoadingPhase
		ok   bool
	}{
		{from: "", to: LoadingPhaseValidated, ok: true},
		{from: "", to: LoadingPhaseReserved, ok: false},
		{from: LoadingPhaseValidated, to: LoadingPhaseReserved, ok: true},
		{from: LoadingPhaseValidated, to: LoadingPhaseAborted, ok: true},
		{from: LoadingPhaseValidated, to: LoadingPhaseCommitted, ok: false},
		{from: LoadingPhaseReserved, to: LoadingPhaseCommitted, ok: true},
		{from: LoadingPhaseReserved, to: LoadingPhaseAborted, ok: true},
		{from: LoadingPhaseCommitted, to: LoadingPhaseAborted, ok: false},
		{from: LoadingPhaseAborted, to: LoadingPhaseValidated, ok: false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.ok {
			t.Fatalf("%q -> %q expected %v got %v", tt.from, tt.to, tt.ok, got)
		}
	}
	if !LoadingPhaseCommitted.IsTerminal() || !LoadingPhaseAborted.IsTerminal() || LoadingPhaseReserved.IsTerminal() {
		t.Fatalf("unexpected terminal phases")
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := ParseMovementDirection("sideways"); err == nil {
		t.Fatalf("expected invalid direction error")
	}
	if d, err := ParseMovementDirection("out"); err != nil || d != DirectionOut {
		t.Fatalf("unexpected direction %q err %v", d, err)
	}
	if typ, err := ParseClientMovementType("credit"); err != nil || typ != ClientMovementCredit {
		t.Fatalf("unexpected type %q err %v", typ, err)
	}
	if k, err := ParseVaultMovementKind("atm_loading_restoration"); err != nil || k != VaultMovementATMLoadingRestoration {
		t.Fatalf("unexpected kind %q err %v", k, err)
	}
	if k, err := ParseBrokerKind(" Kafka "); err != nil || k != BrokerKafka {
		t.Fatalf("unexpected broker kind %q err %v", k, err)
	}
	if _, err := ParseBrokerKind("sqs"); err == nil {
		t.Fatalf("expected invalid broker error")
	}
	if !EventATMLoadingCreated.IsValid() || OutboxEventType("order_created").IsValid() {
		t.Fatalf("unexpected event type validity")
	}
	if a, err := ParseOutboxAggregateType("vault"); err != nil || a != AggregateVault {
		t.Fatalf("unexpected aggregate %q err %v", a, err)
	}
}

func TestEventAggregates(t *testing.T) {
	for _, tt := range []struct {
		event OutboxEventType
		want  OutboxAggregateType
	}{
		{EventVaultReceived, AggregateVault},
		{EventVaultDriftDetected, AggregateVault},
		{EventATMLoadingDeleted, AggregateATMLoading},
		{"order_created", ""},
	} {
		if got := tt.event.Aggregate(); got != tt.want {
			t.Fatalf("%s: expected aggregate %q got %q", tt.event, tt.want, got)
		}
	}
	if _, err := ParseOutboxEventType("order_created"); err == nil {
		t.Fatalf("expected invalid event type error")
	}
	if r, err := ParseOutboxDLQErrorReason("max_attempts"); err != nil || r != OutboxDLQReasonMaxAttempts {
		t.Fatalf("unexpected reason %q err %v", r, err)
	}
}
