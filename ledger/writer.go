// Package ledger turns validated batches of transaction inputs into
// append-only ledger entries with identifiers from the sequence allocator.
package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/sequence"
	"github.com/fundwise/ledgex/types"
)

// EntryStream is the identifier stream ledger entry ids are reserved from.
const EntryStream = "ledger_entries"

const writeAttempts = 3

// EntryInput is one requested ledger entry. Amounts are unsigned; the kind
// fixes the sign convention downstream.
type EntryInput struct {
	HoldingID   uuid.UUID             `json:"holding_id"`
	Kind        types.TransactionKind `json:"kind"`
	Amount      decimal.Decimal       `json:"amount"`
	EffectiveAt time.Time             `json:"effective_at"`
}

// Store is the persistence surface the writer needs. CreateEntries must be
// atomic: all rows durable or none.
type Store interface {
	HoldingExists(ctx context.Context, id uuid.UUID) (bool, error)
	CreateEntries(ctx context.Context, entries []*models.LedgerEntry) error
}

// Publisher fans out post-commit notifications so the valuation aggregator
// and IRR engine recompute for every touched holding.
type Publisher interface {
	PublishHoldingTouched(msg types.HoldingTouchedMessage) error
}

type Writer struct {
	allocator sequence.Allocator
	store     Store
	publisher Publisher
}

func NewWriter(allocator sequence.Allocator, store Store, publisher Publisher) *Writer {
	return &Writer{
		allocator: allocator,
		store:     store,
		publisher: publisher,
	}
}

// WriteBatch validates the whole batch, reserves one contiguous id range and
// inserts every entry in a single transaction. Validation happens before
// reservation so rejected batches consume no identifiers. A batch that fails
// after reservation abandons its range: the gap is logged for operational
// alerting and the ids are never reused.
func (w *Writer) WriteBatch(ctx context.Context, inputs []EntryInput) ([]*models.LedgerEntry, error) {
	if err := w.validate(ctx, inputs); err != nil {
		return nil, err
	}

	idRange, err := w.allocator.Reserve(ctx, EntryStream, len(inputs))
	if err != nil {
		return nil, err
	}

	entries := make([]*models.LedgerEntry, len(inputs))
	for i, input := range inputs {
		entries[i] = &models.LedgerEntry{
			ID:          idRange.Start + uint64(i),
			HoldingID:   input.HoldingID,
			Kind:        input.Kind,
			Amount:      input.Amount,
			EffectiveAt: input.EffectiveAt,
		}
	}

	if err := w.createWithRetry(ctx, entries); err != nil {
		config.Logger.Warnf("ledger: abandoned id range [%d, %d] on stream %s: %v", idRange.Start, idRange.End, EntryStream, err)

		if ctx.Err() != nil {
			return nil, types.ErrDeadlineExceeded
		}

		return nil, errors.Wrapf(types.ErrPersistenceFailed, "batch insert of %d entries: %v", len(entries), err)
	}

	w.notifyTouched(entries)

	return entries, nil
}

func (w *Writer) validate(ctx context.Context, inputs []EntryInput) error {
	if len(inputs) == 0 {
		return &types.ValidationError{Field: "entries", Reason: "empty"}
	}

	checked := make(map[uuid.UUID]bool)

	for i, input := range inputs {
		if !input.Amount.IsPositive() {
			return &types.ValidationError{Field: "amount", Reason: "must be positive at index " + itoa(i)}
		}

		switch input.Kind {
		case types.KindDeposit, types.KindRecurringDeposit, types.KindWithdrawal, types.KindRecurringWithdrawal:
		default:
			return &types.ValidationError{Field: "kind", Reason: "unknown kind at index " + itoa(i)}
		}

		if input.EffectiveAt.IsZero() {
			return &types.ValidationError{Field: "effective_at", Reason: "missing at index " + itoa(i)}
		}

		if checked[input.HoldingID] {
			continue
		}

		exists, err := w.store.HoldingExists(ctx, input.HoldingID)
		if err != nil {
			return errors.Wrapf(types.ErrPersistenceFailed, "holding lookup %s: %v", input.HoldingID, err)
		}

		if !exists {
			return &types.ValidationError{Field: "holding_id", Reason: "unknown holding " + input.HoldingID.String()}
		}

		checked[input.HoldingID] = true
	}

	return nil
}

// createWithRetry retries the atomic insert on transient failure. A failed
// attempt wrote nothing, so reusing the same reserved ids is safe.
func (w *Writer) createWithRetry(ctx context.Context, entries []*models.LedgerEntry) error {
	var lastErr error

	for attempt := 0; attempt < writeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}

		if lastErr = w.store.CreateEntries(ctx, entries); lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return lastErr
		}
	}

	return lastErr
}

func (w *Writer) notifyTouched(entries []*models.LedgerEntry) {
	touched := make(map[uuid.UUID]time.Time)

	for _, entry := range entries {
		if existing, ok := touched[entry.HoldingID]; !ok || entry.EffectiveAt.After(existing) {
			touched[entry.HoldingID] = entry.EffectiveAt
		}
	}

	for holdingID, latest := range touched {
		msg := types.HoldingTouchedMessage{
			HoldingID: holdingID.String(),
			Date:      latest.Format("2006-01-02"),
		}

		if err := w.publisher.PublishHoldingTouched(msg); err != nil {
			config.Logger.Warnf("ledger: failed to publish holding touched for %s: %v", msg.HoldingID, err)
		}
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
