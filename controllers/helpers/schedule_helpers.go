package helpers

import (
	"time"

	"github.com/google/uuid"
	"github.com/gookit/validate"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/recurrence"
	"github.com/fundwise/ledgex/types"
)

type CreateScheduleParams struct {
	HoldingID     string          `json:"holding_id" form:"holding_id" validate:"required"`
	Kind          string          `json:"kind" form:"kind" validate:"required|ValidateKind"`
	Amount        decimal.Decimal `json:"amount" form:"amount" validate:"ValidateAmount"`
	AnchorDay     int             `json:"anchor_day" form:"anchor_day" validate:"ValidateAnchorDay"`
	Interval      string          `json:"interval" form:"interval" validate:"required|ValidateInterval"`
	MaxExecutions *uint32         `json:"max_executions" form:"max_executions"`
	Description   *string         `json:"description" form:"description"`
	StartDate     string          `json:"start_date" form:"start_date"`
}

func (p CreateScheduleParams) Messages() map[string]string {
	invalid_message := "schedule.invalid_{field}"

	return validate.MS{
		"required":          invalid_message,
		"ValidateKind":      invalid_message,
		"ValidateAmount":    "schedule.non_positive_amount",
		"ValidateAnchorDay": "schedule.anchor_day_out_of_range",
		"ValidateInterval":  "schedule.invalid_interval",
	}
}

func (p CreateScheduleParams) ValidateKind(Kind string) bool {
	switch Kind {
	case types.KindDeposit, types.KindRecurringDeposit, types.KindWithdrawal, types.KindRecurringWithdrawal:
		return true
	}

	return false
}

func (p CreateScheduleParams) ValidateAmount(Amount decimal.Decimal) bool {
	return Amount.IsPositive()
}

func (p CreateScheduleParams) ValidateAnchorDay(AnchorDay int) bool {
	return AnchorDay >= 1 && AnchorDay <= 31
}

func (p CreateScheduleParams) ValidateInterval(Interval string) bool {
	switch Interval {
	case types.IntervalNone:
		return p.MaxExecutions == nil || *p.MaxExecutions <= 1
	case types.IntervalMonthly, types.IntervalQuarterly, types.IntervalAnnually:
		return true
	}

	return false
}

// CreateSchedule persists a new active definition with its first due date
// already computed.
func (p CreateScheduleParams) CreateSchedule(errors *Errors) *models.ScheduleDefinition {
	holdingID, err := uuid.Parse(p.HoldingID)
	if err != nil {
		errors.Errors = append(errors.Errors, "schedule.invalid_holding_id")
		return nil
	}

	if !models.HoldingExists(holdingID) {
		errors.Errors = append(errors.Errors, "schedule.unknown_holding")
		return nil
	}

	startDate := recurrence.DateOf(time.Now())
	if len(p.StartDate) > 0 {
		parsed, err := time.Parse("2006-01-02", p.StartDate)
		if err != nil {
			errors.Errors = append(errors.Errors, "schedule.invalid_start_date")
			return nil
		}

		startDate = parsed
	}

	definition := &models.ScheduleDefinition{
		HoldingID: holdingID,
		Kind:      p.Kind,
		Amount:    p.Amount,
		AnchorDay: p.AnchorDay,
		Interval:  p.Interval,
		Status:    types.StatusActive,
		StartDate: startDate,
	}

	if p.MaxExecutions != nil {
		definition.MaxExecutions = null.Uint32From(*p.MaxExecutions)
	}

	if p.Description != nil {
		definition.Description = null.StringFrom(*p.Description)
	}

	if due, ok := recurrence.NextDueDate(definition, startDate); ok {
		definition.NextDueDate = null.TimeFrom(due)
	}

	if result := config.DataBase.Create(definition); result.Error != nil {
		errors.Errors = append(errors.Errors, "server.internal_error")
		return nil
	}

	return definition
}
