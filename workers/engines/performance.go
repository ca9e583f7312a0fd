package engines

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/irr"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/mq_client"
	"github.com/fundwise/ledgex/types"
	"github.com/fundwise/ledgex/valuation"
)

type Worker interface {
	Process(payload []byte) error
}

// PerformanceWorker reacts to holding-touched messages: it refreshes the
// portfolio valuation for the date, evicts the affected IRR cache entries
// and recomputes the holding and portfolio rates.
type PerformanceWorker struct {
	aggregator *valuation.Aggregator
	engine     *irr.Engine
}

func NewPerformanceWorker() *PerformanceWorker {
	return &PerformanceWorker{
		aggregator: valuation.NewAggregator(valuation.NewGormStore(config.DataBase)),
		engine:     irr.NewEngine(irr.NewGormStore(config.DataBase), irr.NewRedisCache()),
	}
}

func (w *PerformanceWorker) Process(payload []byte) error {
	var msg types.HoldingTouchedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}

	holdingID, err := uuid.Parse(msg.HoldingID)
	if err != nil {
		return errors.Wrapf(err, "holding id %s", msg.HoldingID)
	}

	date, err := time.Parse("2006-01-02", msg.Date)
	if err != nil {
		return errors.Wrapf(err, "date %s", msg.Date)
	}

	holding := &models.Holding{}
	if result := config.DataBase.First(holding, "id = ?", holdingID); result.Error != nil {
		return result.Error
	}

	ctx := context.Background()

	// Writes already happened; evict before recomputing so no reader can
	// pin the stale rate.
	if err := w.engine.Invalidate(holdingID); err != nil {
		config.Logger.Warnf("performance: invalidating cache for %s: %v", holdingID, err)
	}

	if _, err := w.aggregator.EnsureParentValuation(ctx, holding.PortfolioID, date); err != nil {
		if errors.Is(err, types.ErrNoChildValuations) {
			config.Logger.Warnf("performance: portfolio %s has no valuations for %s", holding.PortfolioID, msg.Date)
		} else {
			return err
		}
	}

	w.recompute(ctx, []uuid.UUID{holdingID}, holdingID, date)

	siblings := holding.Portfolio().Holdings()
	if len(siblings) > 1 {
		ids := make([]uuid.UUID, len(siblings))
		for i, sibling := range siblings {
			ids[i] = sibling.ID
		}

		w.recompute(ctx, ids, holding.PortfolioID, date)
	}

	return nil
}

func (w *PerformanceWorker) recompute(ctx context.Context, holdingIDs []uuid.UUID, owner uuid.UUID, date time.Time) {
	rate, err := w.engine.Compute(ctx, holdingIDs, date)

	switch {
	case err == nil:
		payload, _ := json.Marshal(map[string]interface{}{
			"owner": owner.String(),
			"date":  date.Format("2006-01-02"),
			"rate":  rate,
		})

		mq_client.EnqueueEvent("public", owner.String(), "irr_updated", payload)
	case errors.Is(err, types.ErrUndefined), errors.Is(err, types.ErrNoConvergence), errors.Is(err, types.ErrNoChildValuations):
		config.Logger.Infof("performance: irr unavailable for %s at %s: %v", owner, date.Format("2006-01-02"), err)
	default:
		config.Logger.Errorf("performance: irr compute for %s failed: %v", owner, err)
	}
}
