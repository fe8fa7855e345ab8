package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a corporate customer whose cash the vault holds.
type Client struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Code      string    `gorm:"column:code;not null;uniqueIndex" json:"code"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// ATM is a cash machine owned by a client.
type ATM struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ClientID   uuid.UUID `gorm:"column:client_id;type:uuid;not null" json:"clientId"`
	TerminalID string    `gorm:"column:terminal_id;not null;uniqueIndex" json:"terminalId"`
	Location   string    `gorm:"column:location;not null;default:''" json:"location"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (ATM) TableName() string { return "atms" }
