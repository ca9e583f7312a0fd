package types

type TransactionKind = string

var (
	KindDeposit             TransactionKind = "deposit"
	KindRecurringDeposit    TransactionKind = "recurring_deposit"
	KindWithdrawal          TransactionKind = "withdrawal"
	KindRecurringWithdrawal TransactionKind = "recurring_withdrawal"
)

type RecurrenceInterval = string

var (
	IntervalNone      RecurrenceInterval = "none"
	IntervalMonthly   RecurrenceInterval = "monthly"
	IntervalQuarterly RecurrenceInterval = "quarterly"
	IntervalAnnually  RecurrenceInterval = "annually"
)

type ScheduleStatus = string

var (
	StatusActive    ScheduleStatus = "active"
	StatusPaused    ScheduleStatus = "paused"
	StatusCancelled ScheduleStatus = "cancelled"
	StatusCompleted ScheduleStatus = "completed"
)

type ExecutionOutcome = string

var (
	OutcomeSuccess ExecutionOutcome = "success"
	OutcomeSkipped ExecutionOutcome = "skipped"
	OutcomeFailed  ExecutionOutcome = "failed"
)

type OrderBy = string

var (
	OrderByAsc  OrderBy = "asc"
	OrderByDesc OrderBy = "desc"
)

// SubjectHoldingTouched is the NATS subject the ledger writer publishes on
// and the performance worker subscribes to.
const SubjectHoldingTouched = "ledgex.holdings.touched"

// HoldingTouchedMessage is published to NATS by the ledger writer after a
// successful batch commit, once per distinct holding in the batch.
type HoldingTouchedMessage struct {
	HoldingID string `json:"holding_id"`
	Date      string `json:"date"`
}

// IntervalMonths returns the month step of a recurrence interval, zero for
// one-time schedules.
func IntervalMonths(interval RecurrenceInterval) int {
	switch interval {
	case IntervalMonthly:
		return 1
	case IntervalQuarterly:
		return 3
	case IntervalAnnually:
		return 12
	default:
		return 0
	}
}

// IsWithdrawalKind reports whether entries of the kind move money out of a
// holding. Deposits are outflows (negative cash flows) and withdrawals
// inflows when building IRR timelines.
func IsWithdrawalKind(kind TransactionKind) bool {
	return kind == KindWithdrawal || kind == KindRecurringWithdrawal
}
