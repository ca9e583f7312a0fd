package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fundwise/ledgex/types"
)

// LedgerEntry is an immutable, append-only record of a monetary movement
// against a holding. IDs come from the "ledger_entries" identifier stream,
// never from a database auto-increment column.
type LedgerEntry struct {
	ID          uint64                `json:"id" gorm:"primaryKey;autoIncrement:false"`
	HoldingID   uuid.UUID             `json:"holding_id" gorm:"type:uuid;index"`
	Kind        types.TransactionKind `json:"kind"`
	Amount      decimal.Decimal       `json:"amount" validate:"ValidateAmount"`
	EffectiveAt time.Time             `json:"effective_at"`
	CreatedAt   time.Time             `json:"created_at"`
}

func (m LedgerEntry) ValidateAmount(Amount decimal.Decimal) bool {
	return Amount.IsPositive()
}

// CashFlow returns the signed flow the entry contributes to an IRR timeline:
// deposits are money out of the investor's pocket (negative), withdrawals
// money back in (positive).
func (m *LedgerEntry) CashFlow() decimal.Decimal {
	if types.IsWithdrawalKind(m.Kind) {
		return m.Amount
	}

	return m.Amount.Neg()
}

type LedgerEntryJSON struct {
	ID          uint64          `json:"id"`
	HoldingID   string          `json:"holding_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	EffectiveAt time.Time       `json:"effective_at"`
}

func (m *LedgerEntry) ToJSON() LedgerEntryJSON {
	return LedgerEntryJSON{
		ID:          m.ID,
		HoldingID:   m.HoldingID.String(),
		Kind:        m.Kind,
		Amount:      m.Amount,
		EffectiveAt: m.EffectiveAt,
	}
}
