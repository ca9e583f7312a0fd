package models

import (
	"time"

	"github.com/volatiletech/null"
)

// IRRResult is the durable copy of a computed rate, keyed by the fingerprint
// of the holding set and the as-of date. The redis cache fronts this table;
// both are invalidated when a ledger entry or valuation for any holding in
// the set changes.
type IRRResult struct {
	ID          uint64      `json:"id" gorm:"primaryKey"`
	Fingerprint string      `json:"fingerprint" gorm:"uniqueIndex:idx_irr_results_fingerprint_date"`
	AsOfDate    time.Time   `json:"as_of_date" gorm:"type:date;uniqueIndex:idx_irr_results_fingerprint_date"`
	Rate        float64     `json:"rate"`
	ValuationID null.Uint64 `json:"valuation_id"`
	ComputedAt  time.Time   `json:"computed_at"`
}

func (IRRResult) TableName() string {
	return "irr_results"
}
