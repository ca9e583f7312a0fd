// Package scheduler materializes due schedule definitions into ledger
// entries and records every attempt.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/ledger"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/recurrence"
	"github.com/fundwise/ledgex/types"
)

const defaultWorkers = 4

// Store is the persistence surface for schedule state and execution history.
// ExecuteDue claims the definition with a row lock, re-checks it is still
// due on/before asOf and runs fn inside the same transaction; it reports
// false without calling fn when another runner already advanced the row.
type Store interface {
	DueDefinitions(ctx context.Context, asOf time.Time) ([]*models.ScheduleDefinition, error)
	ExecuteDue(ctx context.Context, id uint64, asOf time.Time, fn func(store Store, def *models.ScheduleDefinition) error) (bool, error)
	SaveDefinition(ctx context.Context, def *models.ScheduleDefinition) error
	CreateExecutionRecord(ctx context.Context, record *models.ExecutionRecord) error
}

// BatchWriter is the slice of the ledger writer the scheduler needs.
type BatchWriter interface {
	WriteBatch(ctx context.Context, inputs []ledger.EntryInput) ([]*models.LedgerEntry, error)
}

type ExecutionError struct {
	DefinitionID uint64 `json:"definition_id"`
	Reason       string `json:"reason"`
}

type RunResult struct {
	ExecutedCount int              `json:"executed_count"`
	FailedCount   int              `json:"failed_count"`
	SkippedCount  int              `json:"skipped_count"`
	Errors        []ExecutionError `json:"errors"`
}

type Service struct {
	store   Store
	writer  BatchWriter
	workers int
	now     func() time.Time
}

func NewService(store Store, writer BatchWriter) *Service {
	return &Service{
		store:   store,
		writer:  writer,
		workers: defaultWorkers,
		now:     time.Now,
	}
}

// RunDue executes every active definition due on/before asOf. Definitions
// are independent units of work and run concurrently; a failure on one is
// recorded and never blocks the rest. Success advances NextDueDate past
// asOf, which is what makes a re-run with the same asOf a no-op for
// already-executed definitions. A definition another runner claims between
// the candidate read and execution counts as skipped.
func (s *Service) RunDue(ctx context.Context, asOf time.Time) (*RunResult, error) {
	asOf = recurrence.DateOf(asOf)

	due, err := s.store.DueDefinitions(ctx, asOf)
	if err != nil {
		return nil, errors.Wrapf(types.ErrPersistenceFailed, "selecting due definitions: %v", err)
	}

	result := &RunResult{Errors: make([]ExecutionError, 0)}

	var mu sync.Mutex
	var wg sync.WaitGroup

	queue := make(chan *models.ScheduleDefinition)

	workers := s.workers
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for def := range queue {
				executed, err := s.executeOne(ctx, def.ID, asOf)

				mu.Lock()
				switch {
				case err != nil:
					result.FailedCount++
					result.Errors = append(result.Errors, ExecutionError{DefinitionID: def.ID, Reason: err.Error()})
				case executed:
					result.ExecutedCount++
				default:
					result.SkippedCount++
				}
				mu.Unlock()
			}
		}()
	}

	for _, def := range due {
		queue <- def
	}

	close(queue)
	wg.Wait()

	return result, nil
}

// executeOne claims the definition, writes its ledger entry, records the
// attempt and advances the schedule. Failures leave NextDueDate untouched so
// the next run retries.
func (s *Service) executeOne(ctx context.Context, id uint64, asOf time.Time) (bool, error) {
	var execErr error

	claimed, err := s.store.ExecuteDue(ctx, id, asOf, func(store Store, def *models.ScheduleDefinition) error {
		dueDate := recurrence.DateOf(def.NextDueDate.Time)

		entries, writeErr := s.writer.WriteBatch(ctx, []ledger.EntryInput{{
			HoldingID:   def.HoldingID,
			Kind:        def.Kind,
			Amount:      def.Amount,
			EffectiveAt: dueDate,
		}})

		if writeErr != nil {
			execErr = writeErr

			// Commit the failure record; the due date stays put.
			s.record(ctx, store, &models.ExecutionRecord{
				ScheduleDefinitionID: def.ID,
				Outcome:              types.OutcomeFailed,
				Reason:               null.StringFrom(writeErr.Error()),
				ExecutedAt:           s.now(),
			})

			return nil
		}

		s.record(ctx, store, &models.ExecutionRecord{
			ScheduleDefinitionID: def.ID,
			LedgerEntryID:        null.Uint64From(entries[0].ID),
			Outcome:              types.OutcomeSuccess,
			ExecutedAt:           s.now(),
		})

		def.ExecutionsSoFar++

		// Advance past asOf, not just past the executed period, so a
		// re-run with the same asOf finds nothing due.
		next, ok := recurrence.NextDueDate(def, asOf.AddDate(0, 0, 1))
		if ok {
			def.NextDueDate = null.TimeFrom(next)
		} else {
			def.NextDueDate = null.Time{}

			if err := def.Complete(); err != nil {
				config.Logger.Warnf("scheduler: definition %d: %v", def.ID, err)
			}
		}

		return store.SaveDefinition(ctx, def)
	})

	if err != nil {
		return false, errors.Wrapf(types.ErrPersistenceFailed, "executing definition %d: %v", id, err)
	}

	if !claimed {
		s.record(ctx, s.store, &models.ExecutionRecord{
			ScheduleDefinitionID: id,
			Outcome:              types.OutcomeSkipped,
			Reason:               null.StringFrom("no longer due"),
			ExecutedAt:           s.now(),
		})

		return false, nil
	}

	return execErr == nil, execErr
}

func (s *Service) record(ctx context.Context, store Store, record *models.ExecutionRecord) {
	if err := store.CreateExecutionRecord(ctx, record); err != nil {
		config.Logger.Errorf("scheduler: recording execution for definition %d failed: %v", record.ScheduleDefinitionID, err)
	}
}
