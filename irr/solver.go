package irr

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/fundwise/ledgex/types"
)

const (
	// Tolerance is the convergence tolerance on the rate.
	Tolerance = 1e-6

	maxIterations = 200

	rateLowerBound = -0.999999
	rateUpperBound = 10.0

	newtonSeed = 0.1

	hoursPerYear = 24 * 365
)

// CashFlow is a dated, signed amount: outflows (deposits) negative, inflows
// (withdrawals and the terminal valuation) positive.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

// YearFraction is the actual/365-fixed day-count fraction between two dates.
func YearFraction(from, to time.Time) float64 {
	return to.Sub(from).Hours() / hoursPerYear
}

// netValue values every flow at asOf, compounded at rate per year over the
// actual/365 fraction from the flow's date. Its root is the same as the
// classic NPV formulation discounted to the first flow.
func netValue(rate float64, flows []CashFlow, asOf time.Time) float64 {
	total := 0.0

	for _, flow := range flows {
		total += flow.Amount * math.Pow(1+rate, YearFraction(flow.Date, asOf))
	}

	return total
}

func netValueDerivative(rate float64, flows []CashFlow, asOf time.Time) float64 {
	total := 0.0

	for _, flow := range flows {
		t := YearFraction(flow.Date, asOf)
		total += flow.Amount * t * math.Pow(1+rate, t-1)
	}

	return total
}

// Solve finds the yearly rate that zeroes the net value of the flows.
// Newton's method from a 10% seed does the fast path; whenever an iterate
// escapes the bracket or the derivative degenerates it falls back to
// bisection over [-0.999999, 10]. Exhausting the iteration budget is
// ErrNoConvergence, never a silent zero or last iterate.
func Solve(flows []CashFlow, asOf time.Time) (float64, error) {
	if err := validateFlows(flows); err != nil {
		return 0, err
	}

	iterations := 0

	rate := newtonSeed
	for ; iterations < maxIterations; iterations++ {
		value := netValue(rate, flows, asOf)
		derivative := netValueDerivative(rate, flows, asOf)

		if math.Abs(derivative) < math.SmallestNonzeroFloat64*1e10 {
			break
		}

		next := rate - value/derivative
		if next <= rateLowerBound || next >= rateUpperBound || math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}

		if scalar.EqualWithinAbs(next, rate, Tolerance) {
			return next, nil
		}

		rate = next
	}

	return bisect(flows, asOf, iterations)
}

func bisect(flows []CashFlow, asOf time.Time, usedIterations int) (float64, error) {
	lo, hi := rateLowerBound, rateUpperBound

	valueLo := netValue(lo, flows, asOf)
	valueHi := netValue(hi, flows, asOf)

	if valueLo*valueHi > 0 {
		return 0, types.ErrNoConvergence
	}

	for i := usedIterations; i < maxIterations; i++ {
		mid := (lo + hi) / 2
		valueMid := netValue(mid, flows, asOf)

		if valueMid == 0 || scalar.EqualWithinAbs(hi, lo, Tolerance) {
			return mid, nil
		}

		if valueLo*valueMid < 0 {
			hi = mid
		} else {
			lo = mid
			valueLo = valueMid
		}
	}

	return 0, types.ErrNoConvergence
}

// validateFlows rejects inputs for which IRR is mathematically meaningless:
// fewer than two distinct flow dates, or no sign change across the flows.
func validateFlows(flows []CashFlow) error {
	if len(flows) < 2 {
		return types.ErrUndefined
	}

	distinctDates := 1
	hasPositive := false
	hasNegative := false

	for i, flow := range flows {
		if flow.Amount > 0 {
			hasPositive = true
		}

		if flow.Amount < 0 {
			hasNegative = true
		}

		if i > 0 && !flow.Date.Equal(flows[0].Date) {
			distinctDates = 2
		}
	}

	if distinctDates < 2 || !hasPositive || !hasNegative {
		return types.ErrUndefined
	}

	return nil
}
