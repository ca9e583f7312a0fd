// Package valuation rolls per-holding valuations up into portfolio-level
// snapshots.
package valuation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/recurrence"
	"github.com/fundwise/ledgex/types"
)

// Store is the persistence surface the aggregator needs. ValuationFor
// returns nil without error when no snapshot exists for the owner and date.
type Store interface {
	ChildHoldings(ctx context.Context, parentID uuid.UUID) ([]*models.Holding, error)
	ValuationFor(ctx context.Context, ownerID uuid.UUID, date time.Time) (*models.Valuation, error)
	Upsert(ctx context.Context, valuation *models.Valuation) (*models.Valuation, error)
}

type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// EnsureParentValuation sums the children's valuations for the date and
// upserts the parent snapshot. A child with no valuation contributes zero
// and is logged as a warning. When no child has any valuation the parent
// snapshot is not created and ErrNoChildValuations is returned, so callers
// can tell "no data" from a genuine zero.
func (a *Aggregator) EnsureParentValuation(ctx context.Context, parentID uuid.UUID, date time.Time) (*models.Valuation, error) {
	date = recurrence.DateOf(date)

	children, err := a.store.ChildHoldings(ctx, parentID)
	if err != nil {
		return nil, errors.Wrapf(types.ErrPersistenceFailed, "child holdings of %s: %v", parentID, err)
	}

	if len(children) == 0 {
		return nil, errors.Wrapf(types.ErrNoChildValuations, "portfolio %s has no holdings", parentID)
	}

	total := decimal.Zero
	present := 0

	for _, child := range children {
		snapshot, err := a.store.ValuationFor(ctx, child.ID, date)
		if err != nil {
			return nil, errors.Wrapf(types.ErrPersistenceFailed, "valuation of %s at %s: %v", child.ID, date.Format("2006-01-02"), err)
		}

		if snapshot == nil {
			config.Logger.Warnf("valuation: holding %s has no valuation for %s, counting zero", child.ID, date.Format("2006-01-02"))
			continue
		}

		total = total.Add(snapshot.Amount)
		present++
	}

	if present == 0 {
		return nil, errors.Wrapf(types.ErrNoChildValuations, "portfolio %s at %s", parentID, date.Format("2006-01-02"))
	}

	return a.store.Upsert(ctx, &models.Valuation{
		OwnerID: parentID,
		Date:    date,
		Amount:  total,
	})
}
