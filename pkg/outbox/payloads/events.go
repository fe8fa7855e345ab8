package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
)

// VaultMovementEvent is emitted for vault_received and vault_withdrawn.
type VaultMovementEvent struct {
	VaultID          int64               `json:"vaultId"`
	MovementID       int64               `json:"movementId"`
	Amount           decimal.Decimal     `json:"amount"`
	Notes            denomination.Vector `json:"notes"`
	NewBalance       decimal.Decimal     `json:"newBalance"`
	ClientID         *uuid.UUID          `json:"clientId,omitempty"`
	ClientMovementID *int64              `json:"clientMovementId,omitempty"`
	TransactionDate  string              `json:"transactionDate"`
}

// ATMLoadingCreatedEvent is emitted once a loading commits.
type ATMLoadingCreatedEvent struct {
	LoadingID        uuid.UUID           `json:"loadingId"`
	ClientID         uuid.UUID           `json:"clientId"`
	ATMID            uuid.UUID           `json:"atmId"`
	TotalAmount      decimal.Decimal     `json:"totalAmount"`
	Notes            denomination.Vector `json:"notes"`
	LoadingDate      string              `json:"loadingDate"`
	ClientMovementID int64               `json:"clientMovementId"`
	VaultMovementID  int64               `json:"vaultMovementId"`
}

// ATMLoadingUpdatedEvent carries the before/after totals and the note delta
// applied to the vault.
type ATMLoadingUpdatedEvent struct {
	LoadingID            uuid.UUID           `json:"loadingId"`
	ClientID             uuid.UUID           `json:"clientId"`
	ATMID                uuid.UUID           `json:"atmId"`
	OldTotal             decimal.Decimal     `json:"oldTotal"`
	NewTotal             decimal.Decimal     `json:"newTotal"`
	Delta                denomination.Vector `json:"delta"`
	AdjustmentMovementID *int64              `json:"adjustmentMovementId,omitempty"`
}

// ATMLoadingDeletedEvent is emitted when a loading is reversed.
type ATMLoadingDeletedEvent struct {
	LoadingID             uuid.UUID           `json:"loadingId"`
	ClientID              uuid.UUID           `json:"clientId"`
	ATMID                 uuid.UUID           `json:"atmId"`
	RestoredTotal         decimal.Decimal     `json:"restoredTotal"`
	Notes                 denomination.Vector `json:"notes"`
	RestorationMovementID int64               `json:"restorationMovementId"`
}

// VaultDriftDetectedEvent is emitted by the reconciliation job when the
// replayed history disagrees with the stored vault row.
type VaultDriftDetectedEvent struct {
	VaultID       int64               `json:"vaultId"`
	BalanceDrift  decimal.Decimal     `json:"balanceDrift"`
	VectorDrift   denomination.Vector `json:"vectorDrift"`
	ChainBreaks   int                 `json:"chainBreaks"`
	MovementCount int                 `json:"movementCount"`
}
