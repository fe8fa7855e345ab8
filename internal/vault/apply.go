package vault

import (
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

// Apply returns the vault state after m without touching storage. It fails
// when the movement's amounts disagree with its notes, or when the balance
// or any denomination would drop below zero.
func Apply(state models.Vault, m models.VaultMovement) (models.Vault, error) {
	if m.AmountIn.IsNegative() || m.AmountOut.IsNegative() {
		return state, pkgerrors.New(pkgerrors.CodeValidation, "movement amounts must not be negative")
	}
	delta := m.SignedNotes()
	if !delta.WeightedSum().Equal(m.SignedAmount()) {
		return state, pkgerrors.New(pkgerrors.CodeValidation, "declared amount does not match notes").
			WithDetails(map[string]any{
				"declared": m.SignedAmount().String(),
				"notes":    delta.WeightedSum().String(),
			})
	}

	next := state
	next.CurrentBalance = state.CurrentBalance.Add(m.SignedAmount())
	next.Notes = state.Notes.Add(delta)

	fields := next.Notes.NegativeFields()
	if next.CurrentBalance.IsNegative() || len(fields) > 0 {
		return state, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "vault balance insufficient").
			WithDetails(map[string]any{
				"scope":         "vault",
				"available":     state.CurrentBalance.String(),
				"requested":     m.AmountOut.String(),
				"denominations": fields,
			})
	}
	return next, nil
}
