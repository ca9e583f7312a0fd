package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Valuation is a point-in-time worth snapshot for a holding or a portfolio
// aggregate. At most one row exists per (owner, date); writers must upsert
// on that key.
type Valuation struct {
	ID        uint64          `json:"id" gorm:"primaryKey"`
	OwnerID   uuid.UUID       `json:"owner_id" gorm:"type:uuid;uniqueIndex:idx_valuations_owner_date"`
	Date      time.Time       `json:"date" gorm:"type:date;uniqueIndex:idx_valuations_owner_date"`
	Amount    decimal.Decimal `json:"amount" validate:"ValidateAmount"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (m Valuation) ValidateAmount(Amount decimal.Decimal) bool {
	return !Amount.IsNegative()
}

type ValuationJSON struct {
	OwnerID string          `json:"owner_id"`
	Date    string          `json:"date"`
	Amount  decimal.Decimal `json:"amount"`
}

func (m *Valuation) ToJSON() ValuationJSON {
	return ValuationJSON{
		OwnerID: m.OwnerID.String(),
		Date:    m.Date.Format("2006-01-02"),
		Amount:  m.Amount,
	}
}
