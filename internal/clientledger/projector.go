package clientledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

// Position is a client balance folded from its movement history.
type Position struct {
	Balance   decimal.Decimal     `json:"balance"`
	Notes     denomination.Vector `json:"notes"`
	Movements int                 `json:"movements"`
}

// Fold sums credits minus debits over movements created at or before at.
// A nil at folds the whole slice. Input order does not matter.
func Fold(movements []models.ClientMovement, at *time.Time) Position {
	pos := Position{Balance: decimal.Zero}
	for _, m := range movements {
		if at != nil && m.CreatedAt.After(*at) {
			continue
		}
		pos = pos.Apply(m)
	}
	return pos
}

// Apply returns the position after m.
func (p Position) Apply(m models.ClientMovement) Position {
	if m.Sign() < 0 {
		p.Balance = p.Balance.Sub(m.Amount)
		p.Notes = p.Notes.Sub(m.Notes)
	} else {
		p.Balance = p.Balance.Add(m.Amount)
		p.Notes = p.Notes.Add(m.Notes)
	}
	p.Movements++
	return p
}

// CheckDebit rejects a debit that would take the balance or any
// denomination below zero.
func (p Position) CheckDebit(amount decimal.Decimal, notes denomination.Vector) error {
	balance := p.Balance.Sub(amount)
	remaining := p.Notes.Sub(notes)
	fields := remaining.NegativeFields()
	if !balance.IsNegative() && len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "client balance insufficient").
		WithDetails(map[string]any{
			"scope":         "client",
			"available":     p.Balance.String(),
			"requested":     amount.String(),
			"denominations": fields,
		})
}
