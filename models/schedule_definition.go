package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"

	"github.com/fundwise/ledgex/types"
)

// ScheduleDefinition is a recurring or one-time transaction intent. The
// scheduler mutates NextDueDate, ExecutionsSoFar and Status; definitions are
// never deleted, only cancelled.
type ScheduleDefinition struct {
	ID              uint64                   `json:"id" gorm:"primaryKey"`
	HoldingID       uuid.UUID                `json:"holding_id" gorm:"type:uuid;index"`
	Kind            types.TransactionKind    `json:"kind" validate:"ValidateKind"`
	Amount          decimal.Decimal          `json:"amount" validate:"ValidateAmount"`
	AnchorDay       int                      `json:"anchor_day" validate:"ValidateAnchorDay"`
	Interval        types.RecurrenceInterval `json:"interval" validate:"ValidateInterval"`
	MaxExecutions   null.Uint32              `json:"max_executions"`
	Description     null.String              `json:"description"`
	Status          types.ScheduleStatus     `json:"status"`
	StartDate       time.Time                `json:"start_date" gorm:"type:date"`
	NextDueDate     null.Time                `json:"next_due_date" gorm:"type:date"`
	ExecutionsSoFar uint32                   `json:"executions_so_far"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

func (m ScheduleDefinition) ValidateAmount(Amount decimal.Decimal) bool {
	return Amount.IsPositive()
}

func (m ScheduleDefinition) ValidateAnchorDay(AnchorDay int) bool {
	return AnchorDay >= 1 && AnchorDay <= 31
}

func (m ScheduleDefinition) ValidateKind(Kind types.TransactionKind) bool {
	switch Kind {
	case types.KindDeposit, types.KindRecurringDeposit, types.KindWithdrawal, types.KindRecurringWithdrawal:
		return true
	}

	return false
}

// One-time definitions must not carry a recurrence interval, and any
// definition capped above one execution must recur.
func (m ScheduleDefinition) ValidateInterval(Interval types.RecurrenceInterval) bool {
	switch Interval {
	case types.IntervalNone:
		return !m.MaxExecutions.Valid || m.MaxExecutions.Uint32 <= 1
	case types.IntervalMonthly, types.IntervalQuarterly, types.IntervalAnnually:
		return true
	}

	return false
}

func (m *ScheduleDefinition) IsActive() bool {
	return m.Status == types.StatusActive
}

func (m *ScheduleDefinition) IsTerminal() bool {
	return m.Status == types.StatusCancelled || m.Status == types.StatusCompleted
}

// CapReached reports whether ExecutionsSoFar has hit MaxExecutions.
func (m *ScheduleDefinition) CapReached() bool {
	return m.MaxExecutions.Valid && m.ExecutionsSoFar >= m.MaxExecutions.Uint32
}

func (m *ScheduleDefinition) Pause() error {
	if m.Status != types.StatusActive {
		return fmt.Errorf("cannot pause schedule %d in state «%s»", m.ID, m.Status)
	}

	m.Status = types.StatusPaused
	return nil
}

func (m *ScheduleDefinition) Resume() error {
	if m.Status != types.StatusPaused {
		return fmt.Errorf("cannot resume schedule %d in state «%s»", m.ID, m.Status)
	}

	m.Status = types.StatusActive
	return nil
}

func (m *ScheduleDefinition) Cancel() error {
	if m.IsTerminal() {
		return fmt.Errorf("cannot cancel schedule %d in state «%s»", m.ID, m.Status)
	}

	m.Status = types.StatusCancelled
	return nil
}

func (m *ScheduleDefinition) Complete() error {
	if m.Status != types.StatusActive {
		return fmt.Errorf("cannot complete schedule %d in state «%s»", m.ID, m.Status)
	}

	m.Status = types.StatusCompleted
	return nil
}

type ScheduleDefinitionJSON struct {
	ID              uint64          `json:"id"`
	HoldingID       string          `json:"holding_id"`
	Kind            string          `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	AnchorDay       int             `json:"anchor_day"`
	Interval        string          `json:"interval"`
	MaxExecutions   *uint32         `json:"max_executions"`
	Description     *string         `json:"description"`
	Status          string          `json:"status"`
	NextDueDate     *string         `json:"next_due_date"`
	ExecutionsSoFar uint32          `json:"executions_so_far"`
}

func (m *ScheduleDefinition) ToJSON() ScheduleDefinitionJSON {
	j := ScheduleDefinitionJSON{
		ID:              m.ID,
		HoldingID:       m.HoldingID.String(),
		Kind:            m.Kind,
		Amount:          m.Amount,
		AnchorDay:       m.AnchorDay,
		Interval:        m.Interval,
		Status:          m.Status,
		ExecutionsSoFar: m.ExecutionsSoFar,
	}

	if m.MaxExecutions.Valid {
		j.MaxExecutions = &m.MaxExecutions.Uint32
	}

	if m.Description.Valid {
		j.Description = &m.Description.String
	}

	if m.NextDueDate.Valid {
		due := m.NextDueDate.Time.Format("2006-01-02")
		j.NextDueDate = &due
	}

	return j
}
