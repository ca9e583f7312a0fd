// Package irr derives cash-flow timelines from the ledger and solves for the
// internal rate of return, with a redis-backed result cache.
package irr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/recurrence"
	"github.com/fundwise/ledgex/types"
)

// Store is the read/write surface the engine needs. ValuationFor returns nil
// without error when no snapshot exists.
type Store interface {
	EntriesUpTo(ctx context.Context, holdingIDs []uuid.UUID, asOf time.Time) ([]*models.LedgerEntry, error)
	ValuationFor(ctx context.Context, ownerID uuid.UUID, date time.Time) (*models.Valuation, error)
	LastChangedAt(ctx context.Context, holdingIDs []uuid.UUID) (time.Time, error)
	SaveResult(ctx context.Context, result *models.IRRResult) error
}

type Engine struct {
	store Store
	cache Cache
	now   func() time.Time
}

func NewEngine(store Store, cache Cache) *Engine {
	return &Engine{
		store: store,
		cache: cache,
		now:   time.Now,
	}
}

// Fingerprint is the deterministic cache key for a holding set: the sorted
// reference list hashed, so one key addresses one input set regardless of
// caller ordering.
func Fingerprint(holdingIDs []uuid.UUID) string {
	refs := make([]string, len(holdingIDs))
	for i, id := range holdingIDs {
		refs[i] = id.String()
	}

	sort.Strings(refs)

	sum := sha256.Sum256([]byte(strings.Join(refs, "|")))

	return hex.EncodeToString(sum[:16])
}

func cacheKey(fingerprint string, asOf time.Time) string {
	return fingerprint + ":" + asOf.Format("2006-01-02")
}

// Compute returns the yearly IRR for the holdings as of the date. Deposits
// count negative, withdrawals positive, and the holdings' aggregate
// valuation at asOf closes the timeline as a positive terminal flow.
//
// Results are served from cache when the cached entry is newer than the
// input data's last change; anything else recomputes and overwrites both the
// cache and the durable irr_results row.
func (e *Engine) Compute(ctx context.Context, holdingIDs []uuid.UUID, asOf time.Time) (float64, error) {
	if len(holdingIDs) == 0 {
		return 0, types.ErrInvalidArgument
	}

	asOf = recurrence.DateOf(asOf)
	fingerprint := Fingerprint(holdingIDs)
	key := cacheKey(fingerprint, asOf)

	// Stamp freshness before any input read: a write landing while the
	// timeline is being built must make this entry look stale, not fresh.
	computedAt := e.now()

	lastChanged, err := e.store.LastChangedAt(ctx, holdingIDs)
	if err != nil {
		return 0, errors.Wrapf(types.ErrPersistenceFailed, "last change for %s: %v", fingerprint, err)
	}

	if cached, err := e.cache.Get(key); err == nil && cached != nil && !cached.ComputedAt.Before(lastChanged) {
		return cached.Rate, nil
	} else if err != nil {
		config.Logger.Warnf("irr: cache read for %s failed: %v", key, err)
	}

	flows, valuationID, err := e.buildFlows(ctx, holdingIDs, asOf)
	if err != nil {
		return 0, err
	}

	rate, err := Solve(flows, asOf)
	if err != nil {
		return 0, err
	}

	refs := make([]string, len(holdingIDs))
	for i, id := range holdingIDs {
		refs[i] = id.String()
	}

	if err := e.cache.Set(key, CachedRate{Rate: rate, ComputedAt: computedAt}, refs); err != nil {
		config.Logger.Warnf("irr: cache write for %s failed: %v", key, err)
	}

	result := &models.IRRResult{
		Fingerprint: fingerprint,
		AsOfDate:    asOf,
		Rate:        rate,
		ValuationID: valuationID,
		ComputedAt:  computedAt,
	}

	if err := e.store.SaveResult(ctx, result); err != nil {
		config.Logger.Warnf("irr: persisting result for %s failed: %v", fingerprint, err)
	}

	return rate, nil
}

// Invalidate evicts every cached rate whose holding set contains the
// holding. Called eagerly whenever a ledger entry or valuation for the
// holding is written.
func (e *Engine) Invalidate(holdingID uuid.UUID) error {
	return e.cache.InvalidateHolding(holdingID.String())
}

func (e *Engine) buildFlows(ctx context.Context, holdingIDs []uuid.UUID, asOf time.Time) ([]CashFlow, null.Uint64, error) {
	var valuationID null.Uint64

	entries, err := e.store.EntriesUpTo(ctx, holdingIDs, asOf)
	if err != nil {
		return nil, valuationID, errors.Wrapf(types.ErrPersistenceFailed, "ledger entries: %v", err)
	}

	flows := make([]CashFlow, 0, len(entries)+1)
	for _, entry := range entries {
		flows = append(flows, CashFlow{
			Date:   recurrence.DateOf(entry.EffectiveAt),
			Amount: entry.CashFlow().InexactFloat64(),
		})
	}

	terminal := 0.0
	present := 0

	for _, holdingID := range holdingIDs {
		snapshot, err := e.store.ValuationFor(ctx, holdingID, asOf)
		if err != nil {
			return nil, valuationID, errors.Wrapf(types.ErrPersistenceFailed, "valuation of %s: %v", holdingID, err)
		}

		if snapshot == nil {
			config.Logger.Warnf("irr: holding %s has no valuation for %s, counting zero", holdingID, asOf.Format("2006-01-02"))
			continue
		}

		terminal += snapshot.Amount.InexactFloat64()
		present++

		if present == 1 {
			valuationID = null.Uint64From(snapshot.ID)
		} else {
			valuationID = null.Uint64{}
		}
	}

	// No valuation for any holding: the metric is unavailable, not zero.
	if present == 0 {
		return nil, valuationID, errors.Wrapf(types.ErrNoChildValuations, "no valuation for holding set at %s", asOf.Format("2006-01-02"))
	}

	flows = append(flows, CashFlow{Date: asOf, Amount: terminal})

	return flows, valuationID, nil
}
