package vault

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

func stateOf(notes denomination.Vector) models.Vault {
	return models.Vault{ID: 1, CurrentBalance: notes.WeightedSum(), Notes: notes, Version: 3}
}

func TestApplyReceiveAndWithdraw(t *testing.T) {
	state := stateOf(denomination.Vector{Hundreds: 10})

	in := models.VaultMovement{Direction: enums.DirectionIn, AmountIn: decimal.NewFromInt(500), Notes: denomination.Vector{FiveHundreds: 1}}
	next, err := Apply(state, in)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !next.CurrentBalance.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected 1500, got %s", next.CurrentBalance)
	}
	if next.Version != state.Version {
		t.Fatalf("apply must not bump the version")
	}

	out := models.VaultMovement{Direction: enums.DirectionOut, AmountOut: decimal.NewFromInt(300), Notes: denomination.Vector{Hundreds: 3}}
	next, err = Apply(next, out)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if next.Notes != (denomination.Vector{Hundreds: 7, FiveHundreds: 1}) {
		t.Fatalf("unexpected notes %+v", next.Notes)
	}
	if !next.CurrentBalance.Equal(next.Notes.WeightedSum()) {
		t.Fatalf("balance %s does not match notes", next.CurrentBalance)
	}
}

func TestApplyRejectsPerDenominationShortfall(t *testing.T) {
	state := stateOf(denomination.Vector{Hundreds: 10})
	out := models.VaultMovement{Direction: enums.DirectionOut, AmountOut: decimal.NewFromInt(100), Notes: denomination.Vector{Fifties: 2}}

	next, err := Apply(state, out)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if next != state {
		t.Fatalf("state must be unchanged on rejection")
	}
	details, _ := pkgerrors.As(err).Details().(map[string]any)
	if fields, _ := details["denominations"].([]string); len(fields) != 1 || fields[0] != "fifties" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestApplyRejectsMismatchedAmount(t *testing.T) {
	state := stateOf(denomination.Vector{Hundreds: 10})
	out := models.VaultMovement{Direction: enums.DirectionOut, AmountOut: decimal.NewFromInt(150), Notes: denomination.Vector{Hundreds: 1}}
	if _, err := Apply(state, out); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyZeroAmountExchange(t *testing.T) {
	state := stateOf(denomination.Vector{Hundreds: 10})
	// Two hundreds leave, four fifties come back: out direction, zero amount.
	swap := models.VaultMovement{
		Direction: enums.DirectionOut,
		Notes:     denomination.Vector{Hundreds: 2, Fifties: -4},
	}
	next, err := Apply(state, swap)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if next.Notes != (denomination.Vector{Hundreds: 8, Fifties: 4}) {
		t.Fatalf("unexpected notes %+v", next.Notes)
	}
	if !next.CurrentBalance.Equal(state.CurrentBalance) {
		t.Fatalf("balance should not move")
	}
}
