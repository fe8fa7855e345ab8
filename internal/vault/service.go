package vault

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cashvault-backend/internal/clientledger"
	"github.com/angelmondragon/cashvault-backend/pkg/config"
	dbpkg "github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
	"github.com/angelmondragon/cashvault-backend/pkg/logger"
	"github.com/angelmondragon/cashvault-backend/pkg/metrics"
	"github.com/angelmondragon/cashvault-backend/pkg/outbox"
	"github.com/angelmondragon/cashvault-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/cashvault-backend/pkg/pagination"
	"github.com/angelmondragon/cashvault-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type clientLookup interface {
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

type clientPoster interface {
	Credit(ctx context.Context, tx *gorm.DB, entry clientledger.Entry) (*models.ClientMovement, error)
	Debit(ctx context.Context, tx *gorm.DB, entry clientledger.Entry) (*models.ClientMovement, error)
}

// Service exposes the vault of record.
type Service interface {
	// EnsureVault creates the vault of record when it is missing.
	EnsureVault(ctx context.Context) error
	Balance(ctx context.Context, vaultID int64) (*models.Vault, error)
	Movements(ctx context.Context, vaultID int64, params pagination.Params) (*pagination.Page[models.VaultMovement], error)
	Receive(ctx context.Context, input PostingInput) (*PostingResult, error)
	Withdraw(ctx context.Context, input PostingInput) (*PostingResult, error)
}

// PostingInput is a receive or withdraw request. A nil TransactionDate
// means today in the business timezone.
type PostingInput struct {
	Amount          decimal.Decimal
	Notes           denomination.Vector
	ClientID        *uuid.UUID
	BranchID        *uuid.UUID
	TeamID          *uuid.UUID
	Reason          string
	TransactionDate *time.Time
	OperatorID      string
}

// PostingResult is the vault state after a posting.
type PostingResult struct {
	NewBalance     decimal.Decimal        `json:"newBalance"`
	Notes          denomination.Vector    `json:"notes"`
	Movement       models.VaultMovement   `json:"movement"`
	ClientMovement *models.ClientMovement `json:"clientMovement,omitempty"`
}

// ServiceParams groups the vault service collaborators.
type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Poster  *Poster
	Clients clientLookup
	Ledger  clientPoster
	Outbox  outboxPublisher
	Config  config.LedgerConfig
	Logger  *logger.Logger
	Metrics *metrics.LedgerMetrics
}

type service struct {
	repo    Repository
	tx      txRunner
	poster  *Poster
	clients clientLookup
	ledger  clientPoster
	outbox  outboxPublisher
	cfg     config.LedgerConfig
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewService wires the vault service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("vault repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Poster == nil {
		return nil, fmt.Errorf("vault poster required")
	}
	if params.Clients == nil {
		return nil, fmt.Errorf("client lookup required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("client poster required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		poster:  params.Poster,
		clients: params.Clients,
		ledger:  params.Ledger,
		outbox:  params.Outbox,
		cfg:     params.Config,
		logg:    logg,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

func (s *service) EnsureVault(ctx context.Context) error {
	if err := s.repo.Ensure(ctx, s.poster.VaultID()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure vault")
	}
	return nil
}

func (s *service) Balance(ctx context.Context, vaultID int64) (*models.Vault, error) {
	if err := s.checkVault(vaultID); err != nil {
		return nil, err
	}
	state, err := s.repo.Find(ctx, vaultID)
	if err != nil {
		return nil, dbpkg.MapError(err, "vault not found")
	}
	return state, nil
}

func (s *service) Movements(ctx context.Context, vaultID int64, params pagination.Params) (*pagination.Page[models.VaultMovement], error) {
	if err := s.checkVault(vaultID); err != nil {
		return nil, err
	}
	beforeID, err := pagination.ParseSequence(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListMovements(ctx, vaultID, beforeID, limit+1)
	if err != nil {
		return nil, dbpkg.MapError(err, "list vault movements")
	}
	return pagination.Cut(rows, limit, func(m models.VaultMovement) string {
		return pagination.EncodeSequence(m.ID)
	}), nil
}

func (s *service) Receive(ctx context.Context, input PostingInput) (*PostingResult, error) {
	result, err := s.post(ctx, enums.DirectionIn, input)
	s.metrics.ObserveOperation("receive", err)
	return result, err
}

func (s *service) Withdraw(ctx context.Context, input PostingInput) (*PostingResult, error) {
	result, err := s.post(ctx, enums.DirectionOut, input)
	s.metrics.ObserveOperation("withdraw", err)
	return result, err
}

func (s *service) post(ctx context.Context, direction enums.MovementDirection, input PostingInput) (*PostingResult, error) {
	if err := validatePosting(input); err != nil {
		return nil, err
	}
	if input.ClientID != nil {
		if _, err := s.clients.GetClient(ctx, *input.ClientID); err != nil {
			return nil, err
		}
	}

	txDate := s.transactionDate(input.TransactionDate)
	draft := models.VaultMovement{
		Direction:       direction,
		Notes:           input.Notes,
		ClientID:        input.ClientID,
		BranchID:        input.BranchID,
		TeamID:          input.TeamID,
		TransactionDate: txDate,
	}
	eventType := enums.EventVaultReceived
	if direction == enums.DirectionIn {
		draft.Kind = enums.VaultMovementReceive
		draft.AmountIn = input.Amount
		draft.Reason = reasonOr(input.Reason, s.cfg.ReceiveReason)
	} else {
		draft.Kind = enums.VaultMovementWithdraw
		draft.AmountOut = input.Amount
		draft.Reason = reasonOr(input.Reason, s.cfg.WithdrawReason)
		eventType = enums.EventVaultWithdrawn
	}

	var result PostingResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// Reset per attempt; WithTx reruns the closure on transient failures.
		result = PostingResult{}
		movement := draft
		locked, err := s.poster.Lock(ctx, tx)
		if err != nil {
			return err
		}
		if err := s.poster.Post(ctx, tx, locked, &movement); err != nil {
			return err
		}

		if input.ClientID != nil {
			entry := clientledger.Entry{
				ClientID:        *input.ClientID,
				BranchID:        input.BranchID,
				TeamID:          input.TeamID,
				Amount:          input.Amount,
				Notes:           input.Notes,
				Reason:          movement.Reason,
				TransactionDate: txDate,
			}
			var cm *models.ClientMovement
			if direction == enums.DirectionIn {
				cm, err = s.ledger.Credit(ctx, tx, entry)
			} else {
				cm, err = s.ledger.Debit(ctx, tx, entry)
			}
			if err != nil {
				return err
			}
			result.ClientMovement = cm
		}

		payload := payloads.VaultMovementEvent{
			VaultID:         locked.ID,
			MovementID:      movement.ID,
			Amount:          input.Amount,
			Notes:           input.Notes,
			NewBalance:      movement.NewBalance,
			ClientID:        input.ClientID,
			TransactionDate: types.NewDate(txDate).String(),
		}
		if result.ClientMovement != nil {
			payload.ClientMovementID = &result.ClientMovement.ID
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateVault,
			AggregateID:   strconv.FormatInt(locked.ID, 10),
			Actor:         outbox.OperatorActor(input.OperatorID),
			Data:          payload,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit vault event")
		}

		result.NewBalance = locked.CurrentBalance
		result.Notes = locked.Notes
		result.Movement = movement
		return nil
	})
	if err != nil {
		return nil, dbpkg.MapError(err, "vault posting failed")
	}

	s.metrics.SetVaultState(result.NewBalance, result.Notes)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"movement_id": result.Movement.ID,
		"kind":        result.Movement.Kind,
		"amount":      input.Amount.String(),
		"new_balance": result.NewBalance.String(),
	})
	s.logg.Info(logCtx, "vault movement committed")
	return &result, nil
}

func (s *service) checkVault(vaultID int64) error {
	if vaultID != s.poster.VaultID() {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vault not found").
			WithDetails(map[string]any{"vaultId": vaultID})
	}
	return nil
}

func (s *service) transactionDate(requested *time.Time) time.Time {
	if requested != nil && !requested.IsZero() {
		return types.NewDate(*requested).Time
	}
	return types.NewDate(s.now().In(s.cfg.Location())).Time
}

func validatePosting(input PostingInput) error {
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if err := input.Notes.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notes").
			WithDetails(map[string]any{"denominations": input.Notes.NegativeFields()})
	}
	if sum := input.Notes.WeightedSum(); !sum.Equal(input.Amount) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount does not match notes").
			WithDetails(map[string]any{"amount": input.Amount.String(), "notes": sum.String()})
	}
	return nil
}

func reasonOr(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}
