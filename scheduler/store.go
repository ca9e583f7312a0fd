package scheduler

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/types"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DueDefinitions is an unlocked candidate read; ExecuteDue re-checks each
// row under its lock before executing.
func (s *GormStore) DueDefinitions(ctx context.Context, asOf time.Time) ([]*models.ScheduleDefinition, error) {
	var definitions []*models.ScheduleDefinition

	result := s.db.WithContext(ctx).
		Where("status = ? AND next_due_date <= ?", types.StatusActive, asOf).
		Order("next_due_date asc, id asc").
		Find(&definitions)

	if result.Error != nil {
		return nil, result.Error
	}

	return definitions, nil
}

// ExecuteDue locks the row for the duration of fn's transaction. A second
// runner blocks on the lock, then re-reads a definition whose NextDueDate
// has moved past asOf and claims nothing, so two daemons can never execute
// the same definition for the same date.
func (s *GormStore) ExecuteDue(ctx context.Context, id uint64, asOf time.Time, fn func(store Store, def *models.ScheduleDefinition) error) (bool, error) {
	claimed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var def models.ScheduleDefinition

		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ? AND next_due_date <= ?", id, types.StatusActive, asOf).
			First(&def)

		if result.Error == gorm.ErrRecordNotFound {
			return nil
		}

		if result.Error != nil {
			return result.Error
		}

		claimed = true

		return fn(&GormStore{db: tx}, &def)
	})

	return claimed, err
}

func (s *GormStore) SaveDefinition(ctx context.Context, def *models.ScheduleDefinition) error {
	return s.db.WithContext(ctx).Save(def).Error
}

func (s *GormStore) CreateExecutionRecord(ctx context.Context, record *models.ExecutionRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}
