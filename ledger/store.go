package ledger

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/types"
)

// GormStore backs the writer with postgres through gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) HoldingExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64

	result := s.db.WithContext(ctx).Model(&models.Holding{}).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// CreateEntries inserts the batch in one serializable transaction so either
// every row lands or none do.
func (s *GormStore) CreateEntries(ctx context.Context, entries []*models.LedgerEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&entries).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// NatsPublisher pushes holding-touched messages onto the recompute subject
// consumed by the performance worker.
type NatsPublisher struct {
	Subject string
}

func NewNatsPublisher() *NatsPublisher {
	return &NatsPublisher{Subject: types.SubjectHoldingTouched}
}

func (p *NatsPublisher) PublishHoldingTouched(msg types.HoldingTouchedMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return config.Nats.Publish(p.Subject, payload)
}
