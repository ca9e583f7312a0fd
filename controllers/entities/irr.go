package entities

// IRREntity is the outbound IRR shape. Rate is null when Status is anything
// but "ok", so an unavailable metric can never read as 0%.
type IRREntity struct {
	HoldingRefs []string `json:"holding_refs"`
	AsOfDate    string   `json:"as_of_date"`
	Rate        *float64 `json:"rate"`
	Status      string   `json:"status"`
}

var (
	IRRStatusOK            = "ok"
	IRRStatusUndefined     = "undefined"
	IRRStatusNoConvergence = "no_convergence"
	IRRStatusUnavailable   = "unavailable"
)
