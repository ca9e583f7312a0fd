package valuation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fundwise/ledgex/models"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ChildHoldings(ctx context.Context, parentID uuid.UUID) ([]*models.Holding, error) {
	var holdings []*models.Holding

	result := s.db.WithContext(ctx).Find(&holdings, "portfolio_id = ?", parentID)
	if result.Error != nil {
		return nil, result.Error
	}

	return holdings, nil
}

func (s *GormStore) ValuationFor(ctx context.Context, ownerID uuid.UUID, date time.Time) (*models.Valuation, error) {
	var snapshot models.Valuation

	result := s.db.WithContext(ctx).First(&snapshot, "owner_id = ? AND date = ?", ownerID, date)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}

		return nil, result.Error
	}

	return &snapshot, nil
}

// Upsert keeps the (owner, date) uniqueness invariant by updating the amount
// in place on conflict.
func (s *GormStore) Upsert(ctx context.Context, valuation *models.Valuation) (*models.Valuation, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(valuation)

	if result.Error != nil {
		return nil, result.Error
	}

	return valuation, nil
}
