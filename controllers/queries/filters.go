package queries

import (
	"github.com/gookit/validate"

	"github.com/fundwise/ledgex/controllers/helpers"
	"github.com/fundwise/ledgex/types"
)

type ExecutionFilters struct {
	Limit   int           `query:"limit" validate:"uint"`
	OrderBy types.OrderBy `query:"order_by" validate:"ValidateOrderBy"`
}

func (f ExecutionFilters) ValidateOrderBy(val types.OrderBy) bool {
	return helpers.ValidateOrderBy(val)
}

func (f ExecutionFilters) Messages() map[string]string {
	return validate.MS{
		"uint":            "schedule.invalid_limit",
		"ValidateOrderBy": "schedule.invalid_order_by",
	}
}

type EntryFilters struct {
	HoldingID string        `query:"holding_id"`
	TimeFrom  string        `query:"time_from"`
	TimeTo    string        `query:"time_to"`
	Limit     int           `query:"limit" validate:"uint"`
	OrderBy   types.OrderBy `query:"order_by" validate:"ValidateOrderBy"`
}

func (f EntryFilters) ValidateOrderBy(val types.OrderBy) bool {
	return helpers.ValidateOrderBy(val)
}

func (f EntryFilters) Messages() map[string]string {
	return validate.MS{
		"uint":            "ledger.invalid_limit",
		"ValidateOrderBy": "ledger.invalid_order_by",
	}
}

type IRRFilters struct {
	HoldingIDs string `query:"holding_ids"`
	AsOf       string `query:"as_of"`
}
