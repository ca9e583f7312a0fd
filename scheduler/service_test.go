package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/ledger"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/recurrence"
	"github.com/fundwise/ledgex/types"
)

type fakeStore struct {
	mu            sync.Mutex
	definitions   map[uint64]*models.ScheduleDefinition
	records       []*models.ExecutionRecord
	nextID        uint64
	beforeExecute func(id uint64)
}

func newFakeStore() *fakeStore {
	return &fakeStore{definitions: make(map[uint64]*models.ScheduleDefinition)}
}

func (s *fakeStore) add(def *models.ScheduleDefinition) *models.ScheduleDefinition {
	s.nextID++
	def.ID = s.nextID

	if !def.NextDueDate.Valid {
		if due, ok := recurrence.NextDueDate(def, def.StartDate); ok {
			def.NextDueDate = null.TimeFrom(due)
		}
	}

	s.definitions[def.ID] = def

	return def
}

func (s *fakeStore) DueDefinitions(ctx context.Context, asOf time.Time) ([]*models.ScheduleDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*models.ScheduleDefinition
	for _, def := range s.definitions {
		if def.Status == types.StatusActive && def.NextDueDate.Valid && !def.NextDueDate.Time.After(asOf) {
			copied := *def
			due = append(due, &copied)
		}
	}

	return due, nil
}

func (s *fakeStore) ExecuteDue(ctx context.Context, id uint64, asOf time.Time, fn func(store Store, def *models.ScheduleDefinition) error) (bool, error) {
	if s.beforeExecute != nil {
		s.beforeExecute(id)
	}

	s.mu.Lock()
	def, ok := s.definitions[id]
	due := ok && def.Status == types.StatusActive && def.NextDueDate.Valid && !def.NextDueDate.Time.After(asOf)

	var copied models.ScheduleDefinition
	if due {
		copied = *def
	}
	s.mu.Unlock()

	if !due {
		return false, nil
	}

	return true, fn(s, &copied)
}

func (s *fakeStore) SaveDefinition(ctx context.Context, def *models.ScheduleDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *def
	s.definitions[def.ID] = &copied

	return nil
}

func (s *fakeStore) CreateExecutionRecord(ctx context.Context, record *models.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = uint64(len(s.records) + 1)
	s.records = append(s.records, record)

	return nil
}

func (s *fakeStore) recordsFor(definitionID uint64, outcome types.ExecutionOutcome) []*models.ExecutionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.ExecutionRecord
	for _, record := range s.records {
		if record.ScheduleDefinitionID == definitionID && record.Outcome == outcome {
			matched = append(matched, record)
		}
	}

	return matched
}

type fakeWriter struct {
	mu      sync.Mutex
	written []ledger.EntryInput
	failFor map[uuid.UUID]bool
	nextID  uint64
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{failFor: make(map[uuid.UUID]bool)}
}

func (w *fakeWriter) WriteBatch(ctx context.Context, inputs []ledger.EntryInput) ([]*models.LedgerEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, input := range inputs {
		if w.failFor[input.HoldingID] {
			return nil, errors.Wrap(types.ErrPersistenceFailed, "injected failure")
		}
	}

	entries := make([]*models.LedgerEntry, len(inputs))
	for i, input := range inputs {
		w.nextID++
		entries[i] = &models.LedgerEntry{
			ID:          w.nextID,
			HoldingID:   input.HoldingID,
			Kind:        input.Kind,
			Amount:      input.Amount,
			EffectiveAt: input.EffectiveAt,
		}
	}

	w.written = append(w.written, inputs...)

	return entries, nil
}

func monthlyDeposit(store *fakeStore, maxExecutions uint32) *models.ScheduleDefinition {
	def := &models.ScheduleDefinition{
		HoldingID: uuid.New(),
		Kind:      types.KindRecurringDeposit,
		Amount:    decimal.RequireFromString("500.00"),
		AnchorDay: 1,
		Interval:  types.IntervalMonthly,
		Status:    types.StatusActive,
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}

	if maxExecutions > 0 {
		def.MaxExecutions = null.Uint32From(maxExecutions)
	}

	return store.add(def)
}

// Monthly 500.00 deposits capped at three executions: three monthly runs
// produce exactly three entries and a completed definition; a fourth run
// executes nothing.
func TestRunDueCompletesAtCap(t *testing.T) {
	config.NewLoggerService()

	store := newFakeStore()
	writer := newFakeWriter()
	def := monthlyDeposit(store, 3)

	service := NewService(store, writer)

	boundaries := []time.Time{
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	for _, asOf := range boundaries {
		result, err := service.RunDue(context.Background(), asOf)
		require.NoError(t, err)
		assert.Equal(t, 1, result.ExecutedCount)
		assert.Equal(t, 0, result.FailedCount)
	}

	require.Len(t, writer.written, 3)
	for _, input := range writer.written {
		assert.True(t, input.Amount.Equal(decimal.RequireFromString("500.00")))
	}

	final := store.definitions[def.ID]
	assert.Equal(t, types.StatusCompleted, final.Status)
	assert.Equal(t, uint32(3), final.ExecutionsSoFar)
	assert.False(t, final.NextDueDate.Valid)

	fourth, err := service.RunDue(context.Background(), time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, fourth.ExecutedCount)
	assert.Len(t, store.recordsFor(def.ID, types.OutcomeSuccess), 3)
}

// A re-run with the same asOf after a successful execution is a no-op: the
// definition's NextDueDate moved past asOf.
func TestRunDueIdempotentPerDate(t *testing.T) {
	config.NewLoggerService()

	store := newFakeStore()
	writer := newFakeWriter()
	monthlyDeposit(store, 0)

	service := NewService(store, writer)
	asOf := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	first, err := service.RunDue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ExecutedCount)

	second, err := service.RunDue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ExecutedCount)
	require.Len(t, writer.written, 1)
}

// A definition overdue by several periods executes once and lands strictly
// past asOf, so re-running with the same asOf is still a no-op.
func TestRunDueOverdueAdvancesPastAsOf(t *testing.T) {
	config.NewLoggerService()

	store := newFakeStore()
	writer := newFakeWriter()
	def := monthlyDeposit(store, 0) // due 2024-01-01

	service := NewService(store, writer)
	asOf := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	first, err := service.RunDue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ExecutedCount)
	require.Len(t, writer.written, 1)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), writer.written[0].EffectiveAt)

	stored := store.definitions[def.ID]
	require.True(t, stored.NextDueDate.Valid)
	assert.True(t, stored.NextDueDate.Time.After(asOf))
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), stored.NextDueDate.Time)

	second, err := service.RunDue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ExecutedCount)
	require.Len(t, writer.written, 1)
}

// A definition claimed by another runner between the candidate read and the
// locked re-check is skipped, not executed and not failed.
func TestRunDueSkipsDefinitionClaimedElsewhere(t *testing.T) {
	config.NewLoggerService()

	store := newFakeStore()
	writer := newFakeWriter()
	def := monthlyDeposit(store, 0)

	service := NewService(store, writer)
	asOf := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	store.beforeExecute = func(id uint64) {
		store.mu.Lock()
		store.definitions[id].NextDueDate = null.TimeFrom(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC))
		store.mu.Unlock()
	}

	result, err := service.RunDue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExecutedCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Empty(t, writer.written)
	assert.Len(t, store.recordsFor(def.ID, types.OutcomeSkipped), 1)
}

// One definition failing must not block the others, and the failure shows up
// both in the aggregate result and in the execution history.
func TestRunDueIsolatesFailures(t *testing.T) {
	config.NewLoggerService()

	store := newFakeStore()
	writer := newFakeWriter()
	healthy := monthlyDeposit(store, 0)
	broken := monthlyDeposit(store, 0)
	writer.failFor[broken.HoldingID] = true

	service := NewService(store, writer)
	asOf := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	result, err := service.RunDue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExecutedCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, broken.ID, result.Errors[0].DefinitionID)

	assert.Len(t, store.recordsFor(healthy.ID, types.OutcomeSuccess), 1)
	assert.Len(t, store.recordsFor(broken.ID, types.OutcomeFailed), 1)

	// The failed definition stays due and retries on the next run.
	writer.failFor[broken.HoldingID] = false

	retry, err := service.RunDue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.ExecutedCount)
	assert.Len(t, store.recordsFor(broken.ID, types.OutcomeSuccess), 1)
}

// One-time schedules complete after their single execution.
func TestRunDueOneTimeCompletes(t *testing.T) {
	config.NewLoggerService()

	store := newFakeStore()
	writer := newFakeWriter()

	def := store.add(&models.ScheduleDefinition{
		HoldingID: uuid.New(),
		Kind:      types.KindDeposit,
		Amount:    decimal.RequireFromString("1000"),
		AnchorDay: 15,
		Interval:  types.IntervalNone,
		Status:    types.StatusActive,
		StartDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})

	service := NewService(store, writer)

	result, err := service.RunDue(context.Background(), time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExecutedCount)

	final := store.definitions[def.ID]
	assert.Equal(t, types.StatusCompleted, final.Status)
}

// Entries are dated on the due date, not the wall clock of the run.
func TestRunDueUsesDueDateAsEffectiveDate(t *testing.T) {
	config.NewLoggerService()

	store := newFakeStore()
	writer := newFakeWriter()
	monthlyDeposit(store, 0)

	service := NewService(store, writer)

	// Run late: January's execution happens on the 20th.
	_, err := service.RunDue(context.Background(), time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, writer.written, 1)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), writer.written[0].EffectiveAt)
}
