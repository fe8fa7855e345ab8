// Package ledger replays the vault movement log and compares it with the
// stored vault row.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/cashvault-backend/internal/vault"
	dbpkg "github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

// snapshotReader opens a consistent read-only view of the database.
type snapshotReader interface {
	ReadSnapshot(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ChainBreak is a movement whose recorded new_balance disagrees with the
// running balance of the replay.
type ChainBreak struct {
	MovementID int64           `json:"movementId"`
	Recorded   decimal.Decimal `json:"recorded"`
	Expected   decimal.Decimal `json:"expected"`
}

// Report is the outcome of one replay.
type Report struct {
	VaultID         int64               `json:"vaultId"`
	CheckedAt       time.Time           `json:"checkedAt"`
	MovementCount   int                 `json:"movementCount"`
	StoredBalance   decimal.Decimal     `json:"storedBalance"`
	ReplayedBalance decimal.Decimal     `json:"replayedBalance"`
	BalanceDrift    decimal.Decimal     `json:"balanceDrift"`
	StoredNotes     denomination.Vector `json:"storedNotes"`
	ReplayedNotes   denomination.Vector `json:"replayedNotes"`
	VectorDrift     denomination.Vector `json:"vectorDrift"`
	ChainBreaks     []ChainBreak        `json:"chainBreaks"`
	// NegativeAfter lists movements after which the replayed notes held a
	// negative count.
	NegativeAfter []int64 `json:"negativeAfter"`
	Consistent    bool    `json:"consistent"`
}

// Err combines every discrepancy of the report, or returns nil.
func (r *Report) Err() error {
	var err error
	if !r.BalanceDrift.IsZero() {
		err = multierr.Append(err, fmt.Errorf("balance drift %s", r.BalanceDrift))
	}
	if !r.VectorDrift.IsZero() {
		err = multierr.Append(err, fmt.Errorf("note drift %v", r.VectorDrift.Counts()))
	}
	for _, b := range r.ChainBreaks {
		err = multierr.Append(err, fmt.Errorf("movement %d records %s, expected %s", b.MovementID, b.Recorded, b.Expected))
	}
	for _, id := range r.NegativeAfter {
		err = multierr.Append(err, fmt.Errorf("notes negative after movement %d", id))
	}
	return err
}

// Replay folds movements, already in (created_at, id) order, and compares
// the result with state.
func Replay(state models.Vault, movements []models.VaultMovement) Report {
	report := Report{
		VaultID:         state.ID,
		MovementCount:   len(movements),
		StoredBalance:   state.CurrentBalance,
		ReplayedBalance: decimal.Zero,
		StoredNotes:     state.Notes,
		ChainBreaks:     []ChainBreak{},
		NegativeAfter:   []int64{},
	}
	for _, m := range movements {
		report.ReplayedBalance = report.ReplayedBalance.Add(m.SignedAmount())
		report.ReplayedNotes = report.ReplayedNotes.Add(m.SignedNotes())
		if !m.NewBalance.Equal(report.ReplayedBalance) {
			report.ChainBreaks = append(report.ChainBreaks, ChainBreak{
				MovementID: m.ID,
				Recorded:   m.NewBalance,
				Expected:   report.ReplayedBalance,
			})
		}
		if !report.ReplayedNotes.IsNonNegative() {
			report.NegativeAfter = append(report.NegativeAfter, m.ID)
		}
	}
	report.BalanceDrift = state.CurrentBalance.Sub(report.ReplayedBalance)
	report.VectorDrift = state.Notes.Sub(report.ReplayedNotes)
	report.Consistent = report.Err() == nil
	return report
}

// Reconciler checks the vault of record against its history.
type Reconciler struct {
	vaults  vault.Repository
	reads   snapshotReader
	vaultID int64
	now     func() time.Time
}

// NewReconciler builds a Reconciler for vaultID.
func NewReconciler(vaults vault.Repository, reads snapshotReader, vaultID int64) (*Reconciler, error) {
	switch {
	case vaults == nil:
		return nil, fmt.Errorf("vault repository required")
	case reads == nil:
		return nil, fmt.Errorf("snapshot reader required")
	case vaultID <= 0:
		return nil, fmt.Errorf("vault id required")
	}
	return &Reconciler{vaults: vaults, reads: reads, vaultID: vaultID, now: time.Now}, nil
}

// Check replays the movements of vaultID. The vault row and the movement log
// are read from one snapshot, so a posting committed mid-check is either in
// both or in neither.
func (r *Reconciler) Check(ctx context.Context, vaultID int64) (*Report, error) {
	if vaultID != r.vaultID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vault not found").
			WithDetails(map[string]any{"vaultId": vaultID})
	}
	var (
		state     *models.Vault
		movements []models.VaultMovement
	)
	err := r.reads.ReadSnapshot(ctx, func(tx *gorm.DB) error {
		repo := r.vaults.WithTx(tx)
		var err error
		if state, err = repo.Find(ctx, vaultID); err != nil {
			return dbpkg.MapError(err, "vault not found")
		}
		if movements, err = repo.ReplayMovements(ctx, vaultID); err != nil {
			return dbpkg.MapError(err, "load vault movements")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	report := Replay(*state, movements)
	report.CheckedAt = r.now().UTC()
	return &report, nil
}

// VaultID returns the vault of record.
func (r *Reconciler) VaultID() int64 {
	return r.vaultID
}
