package sequence

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/fundwise/ledgex/types"
)

const (
	reserveAttempts = 3
	reserveBackoff  = 50 * time.Millisecond
)

// PostgresAllocator reserves ranges with one atomic upsert per call. The
// stream row is created implicitly on first use.
type PostgresAllocator struct {
	db *gorm.DB
}

func NewPostgresAllocator(db *gorm.DB) *PostgresAllocator {
	return &PostgresAllocator{db: db}
}

const reserveSQL = `
INSERT INTO identifier_streams (name, high_water_mark, created_at, updated_at)
VALUES (?, ?, NOW(), NOW())
ON CONFLICT (name)
DO UPDATE SET high_water_mark = identifier_streams.high_water_mark + ?, updated_at = NOW()
RETURNING high_water_mark`

func (a *PostgresAllocator) Reserve(ctx context.Context, stream string, count int) (Range, error) {
	if err := validateReserve(stream, count); err != nil {
		return Range{}, err
	}

	var lastErr error

	for attempt := 0; attempt < reserveAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Range{}, types.ErrDeadlineExceeded
			case <-time.After(time.Duration(attempt) * reserveBackoff):
			}
		}

		var mark uint64
		result := a.db.WithContext(ctx).Raw(reserveSQL, stream, count, count).Scan(&mark)

		if result.Error == nil {
			return Range{Start: mark - uint64(count) + 1, End: mark}, nil
		}

		if ctx.Err() != nil {
			return Range{}, types.ErrDeadlineExceeded
		}

		lastErr = result.Error
	}

	return Range{}, errors.Wrapf(types.ErrStreamUnavailable, "stream %s, count %d: %v", stream, count, lastErr)
}
