package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
)

// ClientMovement credits or debits a client position. NewBalance is an
// audit snapshot only; balances are always folded from history.
type ClientMovement struct {
	ID              int64                    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ClientID        uuid.UUID                `gorm:"column:client_id;type:uuid;not null" json:"clientId"`
	BranchID        *uuid.UUID               `gorm:"column:branch_id;type:uuid" json:"branchId,omitempty"`
	TeamID          *uuid.UUID               `gorm:"column:team_id;type:uuid" json:"teamId,omitempty"`
	ATMID           *uuid.UUID               `gorm:"column:atm_id;type:uuid" json:"atmId,omitempty"`
	Type            enums.ClientMovementType `gorm:"column:type;type:client_movement_type;not null" json:"type"`
	Amount          decimal.Decimal          `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	NewBalance      decimal.Decimal          `gorm:"column:new_balance;type:numeric(18,2);not null" json:"newBalance"`
	Notes           denomination.Vector      `gorm:"embedded" json:"notes"`
	Reason          string                   `gorm:"column:reason;not null;default:''" json:"reason"`
	TransactionDate time.Time                `gorm:"column:transaction_date;type:date;not null" json:"transactionDate"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (ClientMovement) TableName() string { return "client_movements" }

// Sign returns +1 for credits and -1 for debits.
func (m ClientMovement) Sign() int64 {
	if m.Type == enums.ClientMovementDebit {
		return -1
	}
	return 1
}
