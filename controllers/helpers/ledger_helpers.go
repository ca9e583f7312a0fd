package helpers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fundwise/ledgex/ledger"
)

type BatchEntryParams struct {
	HoldingID   string          `json:"holding_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	EffectiveAt string          `json:"effective_at"`
}

type WriteBatchParams struct {
	Entries []BatchEntryParams `json:"entries"`
}

// ToInputs converts the request payload into writer inputs. Semantic
// validation (kind, amount, holding existence) is the writer's job; only
// shape problems are reported here.
func (p WriteBatchParams) ToInputs(errors *Errors) []ledger.EntryInput {
	if len(p.Entries) == 0 {
		errors.Errors = append(errors.Errors, "ledger.empty_batch")
		return nil
	}

	inputs := make([]ledger.EntryInput, 0, len(p.Entries))

	for _, entry := range p.Entries {
		holdingID, err := uuid.Parse(entry.HoldingID)
		if err != nil {
			errors.Errors = append(errors.Errors, "ledger.invalid_holding_id")
			return nil
		}

		effectiveAt, err := time.Parse(time.RFC3339, entry.EffectiveAt)
		if err != nil {
			if effectiveAt, err = time.Parse("2006-01-02", entry.EffectiveAt); err != nil {
				errors.Errors = append(errors.Errors, "ledger.invalid_effective_at")
				return nil
			}
		}

		inputs = append(inputs, ledger.EntryInput{
			HoldingID:   holdingID,
			Kind:        entry.Kind,
			Amount:      entry.Amount,
			EffectiveAt: effectiveAt,
		})
	}

	return inputs
}
