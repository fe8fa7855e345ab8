package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
)

// VaultMovement is one append-only entry of the vault log. Notes are stored
// oriented by Direction: "in" adds them to the vault, "out" removes them.
type VaultMovement struct {
	ID              int64                   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	VaultID         int64                   `gorm:"column:vault_id;not null" json:"vaultId"`
	Kind            enums.VaultMovementKind `gorm:"column:kind;type:vault_movement_kind;not null" json:"kind"`
	Direction       enums.MovementDirection `gorm:"column:direction;type:movement_direction;not null" json:"direction"`
	AmountIn        decimal.Decimal         `gorm:"column:amount_in;type:numeric(18,2);not null;default:0" json:"amountIn"`
	AmountOut       decimal.Decimal         `gorm:"column:amount_out;type:numeric(18,2);not null;default:0" json:"amountOut"`
	NewBalance      decimal.Decimal         `gorm:"column:new_balance;type:numeric(18,2);not null" json:"newBalance"`
	Notes           denomination.Vector     `gorm:"embedded" json:"notes"`
	ClientID        *uuid.UUID              `gorm:"column:client_id;type:uuid" json:"clientId,omitempty"`
	BranchID        *uuid.UUID              `gorm:"column:branch_id;type:uuid" json:"branchId,omitempty"`
	TeamID          *uuid.UUID              `gorm:"column:team_id;type:uuid" json:"teamId,omitempty"`
	ATMLoadingID    *uuid.UUID              `gorm:"column:atm_loading_id;type:uuid" json:"atmLoadingId,omitempty"`
	Reason          string                  `gorm:"column:reason;not null;default:''" json:"reason"`
	TransactionDate time.Time               `gorm:"column:transaction_date;type:date;not null" json:"transactionDate"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (VaultMovement) TableName() string { return "vault_movements" }

// SignedNotes returns the note delta this movement applied to the vault.
func (m VaultMovement) SignedNotes() denomination.Vector {
	if m.Direction == enums.DirectionOut {
		return m.Notes.Neg()
	}
	return m.Notes
}

// SignedAmount returns amount_in - amount_out.
func (m VaultMovement) SignedAmount() decimal.Decimal {
	return m.AmountIn.Sub(m.AmountOut)
}
