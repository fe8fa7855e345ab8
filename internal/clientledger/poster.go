package clientledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

// Entry describes one client movement to append.
type Entry struct {
	ClientID        uuid.UUID
	BranchID        *uuid.UUID
	TeamID          *uuid.UUID
	ATMID           *uuid.UUID
	Amount          decimal.Decimal
	Notes           denomination.Vector
	Reason          string
	TransactionDate time.Time
}

// Poster writes client movements inside a transaction that already holds
// the vault lock, which serializes concurrent debits of the same client.
type Poster struct {
	repo Repository
}

// NewPoster builds a Poster over repo.
func NewPoster(repo Repository) (*Poster, error) {
	if repo == nil {
		return nil, fmt.Errorf("client movement repository required")
	}
	return &Poster{repo: repo}, nil
}

// Position folds the client's full history, leaving out excludeID when it
// is non-zero.
func (p *Poster) Position(ctx context.Context, tx *gorm.DB, clientID uuid.UUID, excludeID int64) (Position, error) {
	movements, err := p.repo.WithTx(tx).ListByClient(ctx, clientID)
	if err != nil {
		return Position{}, dbpkg.MapError(err, "load client movements")
	}
	if excludeID != 0 {
		kept := movements[:0]
		for _, m := range movements {
			if m.ID != excludeID {
				kept = append(kept, m)
			}
		}
		movements = kept
	}
	return Fold(movements, nil), nil
}

// Credit appends a credit.
func (p *Poster) Credit(ctx context.Context, tx *gorm.DB, entry Entry) (*models.ClientMovement, error) {
	pos, err := p.Position(ctx, tx, entry.ClientID, 0)
	if err != nil {
		return nil, err
	}
	return p.insert(ctx, tx, enums.ClientMovementCredit, entry, pos.Balance.Add(entry.Amount))
}

// Debit appends a debit after checking the client can cover it in total
// and per denomination.
func (p *Poster) Debit(ctx context.Context, tx *gorm.DB, entry Entry) (*models.ClientMovement, error) {
	pos, err := p.Position(ctx, tx, entry.ClientID, 0)
	if err != nil {
		return nil, err
	}
	if err := pos.CheckDebit(entry.Amount, entry.Notes); err != nil {
		return nil, err
	}
	return p.insert(ctx, tx, enums.ClientMovementDebit, entry, pos.Balance.Sub(entry.Amount))
}

// ReplaceDebit rewrites an existing debit in place with entry, checking the
// client position as if the old debit never happened.
func (p *Poster) ReplaceDebit(ctx context.Context, tx *gorm.DB, existing *models.ClientMovement, entry Entry) error {
	if existing == nil || existing.Type != enums.ClientMovementDebit {
		return pkgerrors.New(pkgerrors.CodeConsistency, "paired movement is not a debit")
	}
	pos, err := p.Position(ctx, tx, existing.ClientID, existing.ID)
	if err != nil {
		return err
	}
	if err := pos.CheckDebit(entry.Amount, entry.Notes); err != nil {
		return err
	}
	existing.ATMID = entry.ATMID
	existing.Amount = entry.Amount
	existing.Notes = entry.Notes
	existing.Reason = entry.Reason
	existing.TransactionDate = entry.TransactionDate
	existing.NewBalance = pos.Balance.Sub(entry.Amount)
	if err := p.repo.WithTx(tx).Update(ctx, existing); err != nil {
		return dbpkg.MapError(err, "update client movement")
	}
	return nil
}

// Remove deletes a movement.
func (p *Poster) Remove(ctx context.Context, tx *gorm.DB, id int64) error {
	if err := p.repo.WithTx(tx).Delete(ctx, id); err != nil {
		return dbpkg.MapError(err, "delete client movement")
	}
	return nil
}

func (p *Poster) insert(ctx context.Context, tx *gorm.DB, kind enums.ClientMovementType, entry Entry, newBalance decimal.Decimal) (*models.ClientMovement, error) {
	if entry.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	if !entry.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	movement := &models.ClientMovement{
		ClientID:        entry.ClientID,
		BranchID:        entry.BranchID,
		TeamID:          entry.TeamID,
		ATMID:           entry.ATMID,
		Type:            kind,
		Amount:          entry.Amount,
		NewBalance:      newBalance,
		Notes:           entry.Notes,
		Reason:          entry.Reason,
		TransactionDate: entry.TransactionDate,
	}
	if err := p.repo.WithTx(tx).Insert(ctx, movement); err != nil {
		return nil, dbpkg.MapError(err, "insert client movement")
	}
	return movement, nil
}
