package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/sequence"
	"github.com/fundwise/ledgex/types"
)

type fakeStore struct {
	holdings map[uuid.UUID]bool
	entries  []*models.LedgerEntry
	failures int
}

func newFakeStore(holdings ...uuid.UUID) *fakeStore {
	known := make(map[uuid.UUID]bool)
	for _, id := range holdings {
		known[id] = true
	}

	return &fakeStore{holdings: known}
}

func (s *fakeStore) HoldingExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.holdings[id], nil
}

func (s *fakeStore) CreateEntries(ctx context.Context, entries []*models.LedgerEntry) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}

	s.entries = append(s.entries, entries...)
	return nil
}

type fakePublisher struct {
	messages []types.HoldingTouchedMessage
}

func (p *fakePublisher) PublishHoldingTouched(msg types.HoldingTouchedMessage) error {
	p.messages = append(p.messages, msg)
	return nil
}

func depositInput(holding uuid.UUID, amount string) EntryInput {
	value, _ := decimal.NewFromString(amount)

	return EntryInput{
		HoldingID:   holding,
		Kind:        types.KindDeposit,
		Amount:      value,
		EffectiveAt: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestWriteBatchAssignsContiguousIDs(t *testing.T) {
	config.NewLoggerService()

	holding := uuid.New()
	store := newFakeStore(holding)
	publisher := &fakePublisher{}
	writer := NewWriter(sequence.NewMemoryAllocator(), store, publisher)

	inputs := []EntryInput{
		depositInput(holding, "100"),
		depositInput(holding, "250.50"),
		depositInput(holding, "42"),
	}

	entries, err := writer.WriteBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for i, entry := range entries {
		assert.Equal(t, uint64(i+1), entry.ID)
		assert.True(t, inputs[i].Amount.Equal(entry.Amount))
	}

	require.Len(t, store.entries, 3)
	require.Len(t, publisher.messages, 1)
	assert.Equal(t, holding.String(), publisher.messages[0].HoldingID)
}

func TestWriteBatchValidatesBeforeReserving(t *testing.T) {
	config.NewLoggerService()

	holding := uuid.New()
	store := newFakeStore(holding)
	allocator := sequence.NewMemoryAllocator()
	writer := NewWriter(allocator, store, &fakePublisher{})

	_, err := writer.WriteBatch(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrValidationFailed)

	_, err = writer.WriteBatch(context.Background(), []EntryInput{depositInput(holding, "0")})
	assert.ErrorIs(t, err, types.ErrValidationFailed)

	_, err = writer.WriteBatch(context.Background(), []EntryInput{depositInput(uuid.New(), "10")})
	assert.ErrorIs(t, err, types.ErrValidationFailed)

	// No identifiers were consumed by the rejected batches.
	r, err := allocator.Reserve(context.Background(), EntryStream, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Start)
}

func TestWriteBatchAbandonsRangeOnPersistenceFailure(t *testing.T) {
	config.NewLoggerService()

	holding := uuid.New()
	store := newFakeStore(holding)
	store.failures = writeAttempts // exhaust every retry
	allocator := sequence.NewMemoryAllocator()
	writer := NewWriter(allocator, store, &fakePublisher{})

	_, err := writer.WriteBatch(context.Background(), []EntryInput{depositInput(holding, "100"), depositInput(holding, "200")})
	require.ErrorIs(t, err, types.ErrPersistenceFailed)
	assert.Empty(t, store.entries)

	// The failed batch's ids [1,2] are gapped, never reused.
	entries, err := writer.WriteBatch(context.Background(), []EntryInput{depositInput(holding, "300")})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(3), entries[0].ID)
}

func TestWriteBatchRetriesTransientFailure(t *testing.T) {
	config.NewLoggerService()

	holding := uuid.New()
	store := newFakeStore(holding)
	store.failures = 1
	writer := NewWriter(sequence.NewMemoryAllocator(), store, &fakePublisher{})

	entries, err := writer.WriteBatch(context.Background(), []EntryInput{depositInput(holding, "100")})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(1), entries[0].ID)
}

func TestWriteBatchNotifiesDistinctHoldings(t *testing.T) {
	config.NewLoggerService()

	first := uuid.New()
	second := uuid.New()
	store := newFakeStore(first, second)
	publisher := &fakePublisher{}
	writer := NewWriter(sequence.NewMemoryAllocator(), store, publisher)

	_, err := writer.WriteBatch(context.Background(), []EntryInput{
		depositInput(first, "1"),
		depositInput(second, "2"),
		depositInput(first, "3"),
	})
	require.NoError(t, err)
	assert.Len(t, publisher.messages, 2)
}
