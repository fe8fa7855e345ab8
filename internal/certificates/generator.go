package certificates

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	"github.com/angelmondragon/cashvault-backend/pkg/types"
)

// Certificate states a client position for one business day.
type Certificate struct {
	Client               ClientRef           `json:"client"`
	Date                 types.Date          `json:"date"`
	OpeningBalance       decimal.Decimal     `json:"openingBalance"`
	OpeningDenominations denomination.Vector `json:"openingDenominations"`
	Credits              Group               `json:"credits"`
	Debits               Group               `json:"debits"`
	ClosingBalance       decimal.Decimal     `json:"closingBalance"`
	ClosingDenominations denomination.Vector `json:"closingDenominations"`
	Transactions         []Line              `json:"transactions"`
}

// ClientRef is the letterhead of a certificate.
type ClientRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Code string    `json:"code"`
}

// Group sums the day's movements of one type.
type Group struct {
	Count         int                 `json:"count"`
	Total         decimal.Decimal     `json:"total"`
	Denominations denomination.Vector `json:"denominations"`
}

// Line is one movement of the certified day.
type Line struct {
	ID        int64                    `json:"id"`
	Type      enums.ClientMovementType `json:"type"`
	Amount    decimal.Decimal          `json:"amount"`
	Notes     denomination.Vector      `json:"notes"`
	Reason    string                   `json:"reason"`
	ATMID     *uuid.UUID               `json:"atmId,omitempty"`
	CreatedAt time.Time                `json:"createdAt"`
}

// Generate builds the certificate for day from the client's full history.
// Movements are attributed to days by transaction date: anything before day
// forms the opening position, movements on day are listed and summed.
func Generate(client models.Client, movements []models.ClientMovement, day types.Date) Certificate {
	cert := Certificate{
		Client:         ClientRef{ID: client.ID, Name: client.Name, Code: client.Code},
		Date:           day,
		OpeningBalance: decimal.Zero,
		Credits:        Group{Total: decimal.Zero},
		Debits:         Group{Total: decimal.Zero},
		Transactions:   []Line{},
	}

	ordered := append([]models.ClientMovement(nil), movements...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, m := range ordered {
		txDay := types.NewDate(m.TransactionDate.UTC())
		switch {
		case txDay.Before(day.Time):
			if m.Type == enums.ClientMovementDebit {
				cert.OpeningBalance = cert.OpeningBalance.Sub(m.Amount)
				cert.OpeningDenominations = cert.OpeningDenominations.Sub(m.Notes)
			} else {
				cert.OpeningBalance = cert.OpeningBalance.Add(m.Amount)
				cert.OpeningDenominations = cert.OpeningDenominations.Add(m.Notes)
			}
		case txDay.Equal(day.Time):
			group := &cert.Credits
			if m.Type == enums.ClientMovementDebit {
				group = &cert.Debits
			}
			group.Count++
			group.Total = group.Total.Add(m.Amount)
			group.Denominations = group.Denominations.Add(m.Notes)
			cert.Transactions = append(cert.Transactions, Line{
				ID:        m.ID,
				Type:      m.Type,
				Amount:    m.Amount,
				Notes:     m.Notes,
				Reason:    m.Reason,
				ATMID:     m.ATMID,
				CreatedAt: m.CreatedAt,
			})
		}
	}

	cert.ClosingBalance = cert.OpeningBalance.Add(cert.Credits.Total).Sub(cert.Debits.Total)
	cert.ClosingDenominations = cert.OpeningDenominations.Add(cert.Credits.Denominations).Sub(cert.Debits.Denominations)
	return cert
}
