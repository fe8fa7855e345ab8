package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/api/middleware"
	"github.com/angelmondragon/cashvault-backend/api/responses"
	"github.com/angelmondragon/cashvault-backend/api/validators"
	"github.com/angelmondragon/cashvault-backend/internal/ledger"
	"github.com/angelmondragon/cashvault-backend/internal/vault"
	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
	"github.com/angelmondragon/cashvault-backend/pkg/logger"
	"github.com/angelmondragon/cashvault-backend/pkg/types"
)

// Reconciler replays the vault ledger on demand.
type Reconciler interface {
	Check(ctx context.Context, vaultID int64) (*ledger.Report, error)
}

type postingRequest struct {
	Amount          decimal.Decimal     `json:"amount"`
	Notes           denomination.Vector `json:"notes"`
	ClientID        *uuid.UUID          `json:"clientId,omitempty"`
	BranchID        *uuid.UUID          `json:"branchId,omitempty"`
	TeamID          *uuid.UUID          `json:"teamId,omitempty"`
	Reason          string              `json:"reason,omitempty" validate:"max=255"`
	TransactionDate *types.Date         `json:"transactionDate,omitempty"`
}

func (p postingRequest) toInput(operatorID string) vault.PostingInput {
	input := vault.PostingInput{
		Amount:     p.Amount,
		Notes:      p.Notes,
		ClientID:   p.ClientID,
		BranchID:   p.BranchID,
		TeamID:     p.TeamID,
		Reason:     validators.SanitizeString(p.Reason, 255),
		OperatorID: operatorID,
	}
	if p.TransactionDate != nil && !p.TransactionDate.IsZero() {
		day := p.TransactionDate.Time
		input.TransactionDate = &day
	}
	return input
}

// VaultBalance returns the current vault state.
func VaultBalance(svc vault.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vaultID, err := validators.ParseInt64Param(r, "vaultId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.Balance(r.Context(), vaultID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// VaultUpdates pages through vault movements, newest first.
func VaultUpdates(svc vault.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vaultID, err := validators.ParseInt64Param(r, "vaultId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.Movements(r.Context(), vaultID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// VaultReconciliation replays the movement log against the stored state.
func VaultReconciliation(rec Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rec == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciler unavailable"))
			return
		}
		vaultID, err := validators.ParseInt64Param(r, "vaultId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := rec.Check(r.Context(), vaultID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !report.Consistent && logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"vault_id":      vaultID,
				"balance_drift": report.BalanceDrift.String(),
			})
			logg.Warn(ctx, "vault.reconciliation.drift")
		}
		responses.WriteSuccess(w, report)
	}
}

// VaultReceive posts cash into the vault.
func VaultReceive(svc vault.Service, logg *logger.Logger) http.HandlerFunc {
	return vaultPosting(func(ctx context.Context, in vault.PostingInput) (*vault.PostingResult, error) {
		return svc.Receive(ctx, in)
	}, logg)
}

// VaultWithdraw posts cash out of the vault.
func VaultWithdraw(svc vault.Service, logg *logger.Logger) http.HandlerFunc {
	return vaultPosting(func(ctx context.Context, in vault.PostingInput) (*vault.PostingResult, error) {
		return svc.Withdraw(ctx, in)
	}, logg)
}

func vaultPosting(post func(context.Context, vault.PostingInput) (*vault.PostingResult, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := post(r.Context(), req.toInput(middleware.OperatorIDFromContext(r.Context())))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
