package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fundwise/ledgex/config"
)

type Holding struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	PortfolioID uuid.UUID `json:"portfolio_id" gorm:"type:uuid;index"`
	Name        string    `json:"name"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (m *Holding) Portfolio() *Portfolio {
	portfolio := &Portfolio{}

	config.DataBase.First(&portfolio, "id = ?", m.PortfolioID)

	return portfolio
}

// HoldingExists reports whether a holding row exists. Ledger entries and
// schedule definitions must reference an existing holding.
func HoldingExists(id uuid.UUID) bool {
	var count int64

	config.DataBase.Model(&Holding{}).Where("id = ?", id).Count(&count)

	return count > 0
}

type HoldingJSON struct {
	ID          string `json:"id"`
	PortfolioID string `json:"portfolio_id"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
}

func (m *Holding) ToJSON() HoldingJSON {
	return HoldingJSON{
		ID:          m.ID.String(),
		PortfolioID: m.PortfolioID.String(),
		Name:        m.Name,
		Currency:    m.Currency,
	}
}
