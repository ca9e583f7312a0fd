package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fundwise/ledgex/config"
)

type Portfolio struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Portfolio) Holdings() []*Holding {
	var holdings []*Holding

	config.DataBase.Find(&holdings, "portfolio_id = ?", m.ID)

	return holdings
}

type PortfolioJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func (m *Portfolio) ToJSON() PortfolioJSON {
	return PortfolioJSON{
		ID:       m.ID.String(),
		Name:     m.Name,
		Currency: m.Currency,
	}
}
