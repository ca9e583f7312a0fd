package irr

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

func (s *GormStore) EntriesUpTo(ctx context.Context, holdingIDs []uuid.UUID, asOf time.Time) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry

	result := s.db.WithContext(ctx).
		Where("holding_id IN ?", holdingIDs).
		Where("effective_at < ?", asOf.AddDate(0, 0, 1)).
		Order("effective_at asc, id asc").
		Find(&entries)

	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
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

// LastChangedAt is the newest write across the holdings' ledger entries and
// valuations. Cached rates older than this are stale.
func (s *GormStore) LastChangedAt(ctx context.Context, holdingIDs []uuid.UUID) (time.Time, error) {
	var entryChanged, valuationChanged *time.Time

	result := s.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("MAX(created_at)").
		Where("holding_id IN ?", holdingIDs).
		Scan(&entryChanged)

	if result.Error != nil {
		return time.Time{}, result.Error
	}

	result = s.db.WithContext(ctx).
		Model(&models.Valuation{}).
		Select("MAX(updated_at)").
		Where("owner_id IN ?", holdingIDs).
		Scan(&valuationChanged)

	if result.Error != nil {
		return time.Time{}, result.Error
	}

	latest := time.Time{}
	if entryChanged != nil {
		latest = *entryChanged
	}

	if valuationChanged != nil && valuationChanged.After(latest) {
		latest = *valuationChanged
	}

	return latest, nil
}

func (s *GormStore) SaveResult(ctx context.Context, result *models.IRRResult) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}, {Name: "as_of_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "valuation_id", "computed_at"}),
	}).Create(result).Error
}
