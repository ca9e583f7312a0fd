package models

import (
	"time"

	"github.com/volatiletech/null"

	"github.com/fundwise/ledgex/types"
)

// ExecutionRecord is one row per attempted execution of a schedule
// definition. Immutable once written.
type ExecutionRecord struct {
	ID                   uint64                 `json:"id" gorm:"primaryKey"`
	ScheduleDefinitionID uint64                 `json:"schedule_definition_id" gorm:"index"`
	LedgerEntryID        null.Uint64            `json:"ledger_entry_id"`
	Outcome              types.ExecutionOutcome `json:"outcome"`
	Reason               null.String            `json:"reason"`
	ExecutedAt           time.Time              `json:"executed_at"`
	CreatedAt            time.Time              `json:"created_at"`
}

type ExecutionRecordJSON struct {
	ID                   uint64    `json:"id"`
	ScheduleDefinitionID uint64    `json:"schedule_definition_id"`
	LedgerEntryID        *uint64   `json:"ledger_entry_id"`
	Outcome              string    `json:"outcome"`
	Reason               *string   `json:"reason"`
	ExecutedAt           time.Time `json:"executed_at"`
}

func (m *ExecutionRecord) ToJSON() ExecutionRecordJSON {
	j := ExecutionRecordJSON{
		ID:                   m.ID,
		ScheduleDefinitionID: m.ScheduleDefinitionID,
		Outcome:              m.Outcome,
		ExecutedAt:           m.ExecutedAt,
	}

	if m.LedgerEntryID.Valid {
		j.LedgerEntryID = &m.LedgerEntryID.Uint64
	}

	if m.Reason.Valid {
		j.Reason = &m.Reason.String
	}

	return j
}
