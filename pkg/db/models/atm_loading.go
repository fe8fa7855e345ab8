package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
)

// ATMLoading records one replenishment of a client ATM. It is always paired
// with one client debit (ClientMovementID) and one vault withdrawal.
type ATMLoading struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ClientID         uuid.UUID           `gorm:"column:client_id;type:uuid;not null" json:"clientId"`
	ATMID            uuid.UUID           `gorm:"column:atm_id;type:uuid;not null" json:"atmId"`
	Notes            denomination.Vector `gorm:"embedded" json:"notes"`
	TotalAmount      decimal.Decimal     `gorm:"column:total_amount;type:numeric(18,2);not null" json:"totalAmount"`
	LoadingDate      time.Time           `gorm:"column:loading_date;type:date;not null" json:"loadingDate"`
	Comment          string              `gorm:"column:comment;not null;default:''" json:"comment"`
	ClientMovementID int64               `gorm:"column:client_movement_id;not null" json:"clientMovementId"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (ATMLoading) TableName() string { return "atm_loadings" }
