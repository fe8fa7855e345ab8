package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
)

// Vault is the single mutable cash aggregate. CurrentBalance always equals
// the weighted sum of the embedded note counts.
type Vault struct {
	ID             int64               `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	CurrentBalance decimal.Decimal     `gorm:"column:current_balance;type:numeric(18,2);not null;default:0" json:"currentBalance"`
	Notes          denomination.Vector `gorm:"embedded" json:"notes"`
	Version        int64               `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Vault) TableName() string { return "vaults" }
