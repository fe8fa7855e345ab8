package atmloading

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cashvault-backend/internal/clientledger"
	"github.com/angelmondragon/cashvault-backend/internal/vault"
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

type directoryLookup interface {
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	OwnedATM(ctx context.Context, clientID, atmID uuid.UUID) (*models.ATM, error)
}

type vaultPoster interface {
	Lock(ctx context.Context, tx *gorm.DB) (*models.Vault, error)
	Post(ctx context.Context, tx *gorm.DB, locked *models.Vault, m *models.VaultMovement) error
}

type clientPoster interface {
	Position(ctx context.Context, tx *gorm.DB, clientID uuid.UUID, excludeID int64) (clientledger.Position, error)
	Debit(ctx context.Context, tx *gorm.DB, entry clientledger.Entry) (*models.ClientMovement, error)
	ReplaceDebit(ctx context.Context, tx *gorm.DB, existing *models.ClientMovement, entry clientledger.Entry) error
	Remove(ctx context.Context, tx *gorm.DB, id int64) error
}

// Service runs the ATM loading workflow. Every write moves the loading
// record, its paired client debit and the vault together or not at all.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Result, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Result, error)
	Delete(ctx context.Context, id uuid.UUID, operatorID string) (*DeleteResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ATMLoading, error)
	List(ctx context.Context, params pagination.Params) (*pagination.Page[models.ATMLoading], error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.ATMLoading, error)
	ListByATM(ctx context.Context, atmID uuid.UUID) ([]models.ATMLoading, error)
}

// CreateInput describes a new loading. TotalAmount is optional; when set it
// must equal the weighted sum of Notes.
type CreateInput struct {
	ClientID    uuid.UUID
	ATMID       uuid.UUID
	Notes       denomination.Vector
	TotalAmount *decimal.Decimal
	LoadingDate time.Time
	Comment     string
	OperatorID  string
}

// UpdateInput replaces the editable fields of a loading. ClientID, when
// set, must match the stored client.
type UpdateInput struct {
	ClientID    *uuid.UUID
	ATMID       uuid.UUID
	Notes       denomination.Vector
	TotalAmount *decimal.Decimal
	LoadingDate time.Time
	Comment     string
	OperatorID  string
}

// Result is a committed loading with its ledger side effects.
type Result struct {
	Loading        models.ATMLoading     `json:"loading"`
	ClientMovement models.ClientMovement `json:"clientMovement"`
	VaultMovement  *models.VaultMovement `json:"vaultMovement,omitempty"`
	VaultBalance   decimal.Decimal       `json:"vaultBalance"`
	VaultNotes     denomination.Vector   `json:"vaultNotes"`
	Phase          enums.LoadingPhase    `json:"phase"`
}

// DeleteResult describes a reversed loading.
type DeleteResult struct {
	LoadingID           uuid.UUID            `json:"loadingId"`
	RestoredTotal       decimal.Decimal      `json:"restoredTotal"`
	RestoredNotes       denomination.Vector  `json:"restoredNotes"`
	RestorationMovement models.VaultMovement `json:"restorationMovement"`
	VaultBalance        decimal.Decimal      `json:"vaultBalance"`
	VaultNotes          denomination.Vector  `json:"vaultNotes"`
	Phase               enums.LoadingPhase   `json:"phase"`
}

// ServiceParams groups the loading workflow collaborators.
type ServiceParams struct {
	Repo            Repository
	ClientMovements clientledger.Repository
	Tx              txRunner
	Directory       directoryLookup
	Vault           vaultPoster
	Clients         clientPoster
	Outbox          outboxPublisher
	Config          config.LedgerConfig
	Logger          *logger.Logger
	Metrics         *metrics.LedgerMetrics
}

type service struct {
	repo      Repository
	movements clientledger.Repository
	tx        txRunner
	directory directoryLookup
	vault     vaultPoster
	clients   clientPoster
	outbox    outboxPublisher
	cfg       config.LedgerConfig
	logg      *logger.Logger
	metrics   *metrics.LedgerMetrics
}

// NewService wires the ATM loading workflow.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("atm loading repository required")
	case params.ClientMovements == nil:
		return nil, fmt.Errorf("client movement repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Directory == nil:
		return nil, fmt.Errorf("directory lookup required")
	case params.Vault == nil:
		return nil, fmt.Errorf("vault poster required")
	case params.Clients == nil:
		return nil, fmt.Errorf("client poster required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:      params.Repo,
		movements: params.ClientMovements,
		tx:        params.Tx,
		directory: params.Directory,
		vault:     params.Vault,
		clients:   params.Clients,
		outbox:    params.Outbox,
		cfg:       params.Config,
		logg:      logg,
		metrics:   params.Metrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Result, error) {
	result, err := s.create(ctx, input)
	s.metrics.ObserveOperation("atm_loading_create", err)
	return result, err
}

func (s *service) create(ctx context.Context, input CreateInput) (*Result, error) {
	var (
		uow    unitOfWork
		total  decimal.Decimal
		date   time.Time
		result Result
	)
	if err := uow.run(enums.LoadingPhaseValidated, func() error {
		var err error
		if total, date, err = validateLoading(input.Notes, input.TotalAmount, input.LoadingDate); err != nil {
			return err
		}
		if _, err := s.directory.GetClient(ctx, input.ClientID); err != nil {
			return err
		}
		_, err = s.directory.OwnedATM(ctx, input.ClientID, input.ATMID)
		return err
	}); err != nil {
		return nil, err
	}

	loadingID := uuid.New()
	draft := models.VaultMovement{
		Kind:            enums.VaultMovementATMLoading,
		Direction:       enums.DirectionOut,
		AmountOut:       total,
		Notes:           input.Notes,
		ClientID:        &input.ClientID,
		ATMLoadingID:    &loadingID,
		Reason:          s.cfg.LoadingReason,
		TransactionDate: date,
	}

	// WithTx may rerun the closure, so each attempt starts from the validated
	// phase with a fresh movement.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		work := uow
		movement := draft
		var locked *models.Vault
		if err := work.run(enums.LoadingPhaseReserved, func() error {
			var err error
			if locked, err = s.vault.Lock(ctx, tx); err != nil {
				return err
			}
			if _, err := vault.Apply(*locked, movement); err != nil {
				return err
			}
			pos, err := s.clients.Position(ctx, tx, input.ClientID, 0)
			if err != nil {
				return err
			}
			return pos.CheckDebit(total, input.Notes)
		}); err != nil {
			return err
		}

		if err := work.run(enums.LoadingPhaseCommitted, func() error {
			atmID := input.ATMID
			debit, err := s.clients.Debit(ctx, tx, clientledger.Entry{
				ClientID:        input.ClientID,
				ATMID:           &atmID,
				Amount:          total,
				Notes:           input.Notes,
				Reason:          s.cfg.LoadingReason,
				TransactionDate: date,
			})
			if err != nil {
				return err
			}
			loading := models.ATMLoading{
				ID:               loadingID,
				ClientID:         input.ClientID,
				ATMID:            input.ATMID,
				Notes:            input.Notes,
				TotalAmount:      total,
				LoadingDate:      date,
				Comment:          input.Comment,
				ClientMovementID: debit.ID,
			}
			if err := s.repo.WithTx(tx).Create(ctx, &loading); err != nil {
				return dbpkg.MapError(err, "insert atm loading")
			}
			if err := s.vault.Post(ctx, tx, locked, &movement); err != nil {
				return err
			}
			if err := s.emit(ctx, tx, enums.EventATMLoadingCreated, loadingID, input.OperatorID, payloads.ATMLoadingCreatedEvent{
				LoadingID:        loadingID,
				ClientID:         input.ClientID,
				ATMID:            input.ATMID,
				TotalAmount:      total,
				Notes:            input.Notes,
				LoadingDate:      types.NewDate(date).String(),
				ClientMovementID: debit.ID,
				VaultMovementID:  movement.ID,
			}); err != nil {
				return err
			}
			result = Result{
				Loading:        loading,
				ClientMovement: *debit,
				VaultMovement:  &movement,
				VaultBalance:   locked.CurrentBalance,
				VaultNotes:     locked.Notes,
			}
			return nil
		}); err != nil {
			return err
		}
		result.Phase = work.Phase()
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "atm loading create aborted", loadingID, err)
		return nil, err
	}
	s.metrics.SetVaultState(result.VaultBalance, result.VaultNotes)
	s.logCommitted(ctx, "atm loading committed", loadingID, result.VaultBalance)
	return &result, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Result, error) {
	result, err := s.update(ctx, id, input)
	s.metrics.ObserveOperation("atm_loading_update", err)
	return result, err
}

func (s *service) update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Result, error) {
	var (
		uow    unitOfWork
		total  decimal.Decimal
		date   time.Time
		result Result
	)
	if err := uow.run(enums.LoadingPhaseValidated, func() error {
		var err error
		if total, date, err = validateLoading(input.Notes, input.TotalAmount, input.LoadingDate); err != nil {
			return err
		}
		current, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if input.ClientID != nil && *input.ClientID != current.ClientID {
			return pkgerrors.New(pkgerrors.CodeValidation, "client of a loading cannot change").
				WithDetails(map[string]any{"clientId": current.ClientID.String()})
		}
		_, err = s.directory.OwnedATM(ctx, current.ClientID, input.ATMID)
		return err
	}); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		work := uow
		var (
			locked     *models.Vault
			loading    *models.ATMLoading
			debit      *models.ClientMovement
			adjustment *models.VaultMovement
			oldTotal   decimal.Decimal
			delta      denomination.Vector
		)
		if err := work.run(enums.LoadingPhaseReserved, func() error {
			var err error
			if locked, err = s.vault.Lock(ctx, tx); err != nil {
				return err
			}
			if loading, debit, err = s.loadPair(ctx, tx, id); err != nil {
				return err
			}
			oldTotal = loading.TotalAmount
			delta = input.Notes.Sub(loading.Notes)
			adjustment = adjustmentFor(total.Sub(oldTotal), delta)
			if adjustment != nil {
				adjustment.ClientID = &loading.ClientID
				adjustment.ATMLoadingID = &loading.ID
				adjustment.Reason = s.cfg.AdjustmentReason
				adjustment.TransactionDate = date
				if _, err := vault.Apply(*locked, *adjustment); err != nil {
					return err
				}
			}
			pos, err := s.clients.Position(ctx, tx, loading.ClientID, debit.ID)
			if err != nil {
				return err
			}
			return pos.CheckDebit(total, input.Notes)
		}); err != nil {
			return err
		}

		if err := work.run(enums.LoadingPhaseCommitted, func() error {
			atmID := input.ATMID
			if err := s.clients.ReplaceDebit(ctx, tx, debit, clientledger.Entry{
				ClientID:        loading.ClientID,
				ATMID:           &atmID,
				Amount:          total,
				Notes:           input.Notes,
				Reason:          debit.Reason,
				TransactionDate: date,
			}); err != nil {
				return err
			}
			loading.ATMID = input.ATMID
			loading.Notes = input.Notes
			loading.TotalAmount = total
			loading.LoadingDate = date
			loading.Comment = input.Comment
			if err := s.repo.WithTx(tx).Update(ctx, loading); err != nil {
				return dbpkg.MapError(err, "update atm loading")
			}
			event := payloads.ATMLoadingUpdatedEvent{
				LoadingID: loading.ID,
				ClientID:  loading.ClientID,
				ATMID:     loading.ATMID,
				OldTotal:  oldTotal,
				NewTotal:  total,
				Delta:     delta,
			}
			if adjustment != nil {
				if err := s.vault.Post(ctx, tx, locked, adjustment); err != nil {
					return err
				}
				event.AdjustmentMovementID = &adjustment.ID
			}
			if err := s.emit(ctx, tx, enums.EventATMLoadingUpdated, loading.ID, input.OperatorID, event); err != nil {
				return err
			}
			result = Result{
				Loading:        *loading,
				ClientMovement: *debit,
				VaultMovement:  adjustment,
				VaultBalance:   locked.CurrentBalance,
				VaultNotes:     locked.Notes,
			}
			return nil
		}); err != nil {
			return err
		}
		result.Phase = work.Phase()
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "atm loading update aborted", id, err)
		return nil, err
	}
	s.metrics.SetVaultState(result.VaultBalance, result.VaultNotes)
	s.logCommitted(ctx, "atm loading updated", id, result.VaultBalance)
	return &result, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, operatorID string) (*DeleteResult, error) {
	result, err := s.delete(ctx, id, operatorID)
	s.metrics.ObserveOperation("atm_loading_delete", err)
	return result, err
}

func (s *service) delete(ctx context.Context, id uuid.UUID, operatorID string) (*DeleteResult, error) {
	var (
		uow    unitOfWork
		result DeleteResult
	)
	if err := uow.run(enums.LoadingPhaseValidated, func() error {
		_, err := s.Get(ctx, id)
		return err
	}); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		work := uow
		var (
			locked      *models.Vault
			loading     *models.ATMLoading
			debit       *models.ClientMovement
			restoration models.VaultMovement
		)
		if err := work.run(enums.LoadingPhaseReserved, func() error {
			var err error
			if locked, err = s.vault.Lock(ctx, tx); err != nil {
				return err
			}
			if loading, debit, err = s.loadPair(ctx, tx, id); err != nil {
				return err
			}
			restoration = models.VaultMovement{
				Kind:            enums.VaultMovementATMLoadingRestoration,
				Direction:       enums.DirectionIn,
				AmountIn:        loading.TotalAmount,
				Notes:           loading.Notes,
				ClientID:        &loading.ClientID,
				ATMLoadingID:    &loading.ID,
				Reason:          s.cfg.RestorationReason,
				TransactionDate: loading.LoadingDate,
			}
			_, err = vault.Apply(*locked, restoration)
			return err
		}); err != nil {
			return err
		}

		if err := work.run(enums.LoadingPhaseCommitted, func() error {
			if err := s.repo.WithTx(tx).Delete(ctx, loading.ID); err != nil {
				return dbpkg.MapError(err, "delete atm loading")
			}
			if err := s.clients.Remove(ctx, tx, debit.ID); err != nil {
				return err
			}
			if err := s.vault.Post(ctx, tx, locked, &restoration); err != nil {
				return err
			}
			if err := s.emit(ctx, tx, enums.EventATMLoadingDeleted, loading.ID, operatorID, payloads.ATMLoadingDeletedEvent{
				LoadingID:             loading.ID,
				ClientID:              loading.ClientID,
				ATMID:                 loading.ATMID,
				RestoredTotal:         loading.TotalAmount,
				Notes:                 loading.Notes,
				RestorationMovementID: restoration.ID,
			}); err != nil {
				return err
			}
			result = DeleteResult{
				LoadingID:           loading.ID,
				RestoredTotal:       loading.TotalAmount,
				RestoredNotes:       loading.Notes,
				RestorationMovement: restoration,
				VaultBalance:        locked.CurrentBalance,
				VaultNotes:          locked.Notes,
			}
			return nil
		}); err != nil {
			return err
		}
		result.Phase = work.Phase()
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "atm loading delete aborted", id, err)
		return nil, err
	}
	s.metrics.SetVaultState(result.VaultBalance, result.VaultNotes)
	s.logCommitted(ctx, "atm loading reversed", id, result.VaultBalance)
	return &result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ATMLoading, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "atm loading id required")
	}
	loading, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, dbpkg.MapError(err, "atm loading not found")
	}
	return loading, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*pagination.Page[models.ATMLoading], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, cursor, limit+1)
	if err != nil {
		return nil, dbpkg.MapError(err, "list atm loadings")
	}
	return pagination.Cut(rows, limit, func(l models.ATMLoading) string {
		return pagination.EncodeCursor(pagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID})
	}), nil
}

func (s *service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.ATMLoading, error) {
	if _, err := s.directory.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dbpkg.MapError(err, "list atm loadings")
	}
	return rows, nil
}

func (s *service) ListByATM(ctx context.Context, atmID uuid.UUID) ([]models.ATMLoading, error) {
	rows, err := s.repo.ListByATM(ctx, atmID)
	if err != nil {
		return nil, dbpkg.MapError(err, "list atm loadings")
	}
	return rows, nil
}

// loadPair reads a loading and its paired client debit inside tx and checks
// they still describe the same cash.
func (s *service) loadPair(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ATMLoading, *models.ClientMovement, error) {
	loading, err := s.repo.WithTx(tx).FindByID(ctx, id)
	if err != nil {
		return nil, nil, dbpkg.MapError(err, "atm loading not found")
	}
	debit, err := s.movements.WithTx(tx).FindByID(ctx, loading.ClientMovementID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, nil, consistencyError(loading, "paired client movement is missing")
		}
		return nil, nil, dbpkg.MapError(err, "load paired client movement")
	}
	if mismatch := pairMismatch(loading, debit); len(mismatch) > 0 {
		return nil, nil, consistencyError(loading, "paired client movement does not match").
			WithDetails(map[string]any{
				"loadingId":        loading.ID.String(),
				"clientMovementId": loading.ClientMovementID,
				"mismatch":         mismatch,
			})
	}
	return loading, debit, nil
}

func consistencyError(loading *models.ATMLoading, message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeConsistency, message).
		WithDetails(map[string]any{
			"loadingId":        loading.ID.String(),
			"clientMovementId": loading.ClientMovementID,
		})
}

func pairMismatch(loading *models.ATMLoading, debit *models.ClientMovement) []string {
	var mismatch []string
	if debit.Type != enums.ClientMovementDebit {
		mismatch = append(mismatch, "type")
	}
	if debit.ClientID != loading.ClientID {
		mismatch = append(mismatch, "clientId")
	}
	if !debit.Amount.Equal(loading.TotalAmount) {
		mismatch = append(mismatch, "amount")
	}
	if debit.Notes != loading.Notes {
		mismatch = append(mismatch, "notes")
	}
	return mismatch
}

// adjustmentFor builds the vault movement that moves the vault from the old
// loading to the new one, or nil when the notes did not change. The vault
// loses delta: a growing total is an out movement of diff, a shrinking one
// an in movement of -diff carrying -delta.
func adjustmentFor(diff decimal.Decimal, delta denomination.Vector) *models.VaultMovement {
	if delta.IsZero() {
		return nil
	}
	m := &models.VaultMovement{Kind: enums.VaultMovementATMLoadingAdjustment}
	if diff.IsNegative() {
		m.Direction = enums.DirectionIn
		m.AmountIn = diff.Neg()
		m.Notes = delta.Neg()
	} else {
		m.Direction = enums.DirectionOut
		m.AmountOut = diff
		m.Notes = delta
	}
	return m
}

func validateLoading(notes denomination.Vector, declared *decimal.Decimal, loadingDate time.Time) (decimal.Decimal, time.Time, error) {
	if err := notes.Validate(); err != nil {
		return decimal.Zero, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notes").
			WithDetails(map[string]any{"denominations": notes.NegativeFields()})
	}
	if notes.IsZero() {
		return decimal.Zero, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "loading must carry notes")
	}
	total := notes.WeightedSum()
	if declared != nil && !declared.Equal(total) {
		return decimal.Zero, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "total amount does not match notes").
			WithDetails(map[string]any{"totalAmount": declared.String(), "notes": total.String()})
	}
	if loadingDate.IsZero() {
		return decimal.Zero, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "loading date required")
	}
	return total, types.NewDate(loadingDate).Time, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, loadingID uuid.UUID, operatorID string, data any) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateATMLoading,
		AggregateID:   loadingID.String(),
		Actor:         outbox.OperatorActor(operatorID),
		Data:          data,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit atm loading event")
	}
	return nil
}

func (s *service) logCommitted(ctx context.Context, msg string, loadingID uuid.UUID, balance decimal.Decimal) {
	logCtx := s.logg.WithLoadingID(ctx, loadingID.String())
	logCtx = s.logg.WithField(logCtx, "new_balance", balance.String())
	s.logg.Info(logCtx, msg)
}

func (s *service) logFailure(ctx context.Context, msg string, loadingID uuid.UUID, err error) {
	logCtx := s.logg.WithLoadingID(ctx, loadingID.String())
	if typed := pkgerrors.As(err); typed != nil {
		logCtx = s.logg.WithField(logCtx, "step", typed.Step())
		if typed.Code().ClientFault() {
			s.logg.Warn(logCtx, msg)
			return
		}
	}
	s.logg.Error(logCtx, msg, err)
}
