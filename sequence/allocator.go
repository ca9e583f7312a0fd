// Package sequence reserves contiguous ranges of unique identifiers from
// named streams. Reserving is a single atomic fetch-and-add on the stream's
// high-water mark, so there is no commit step: a range handed out and never
// used becomes a permanent gap, which downstream consumers tolerate.
package sequence

import (
	"context"

	"github.com/fundwise/ledgex/types"
)

// Range is a reserved identifier range, inclusive on both ends.
type Range struct {
	Start uint64
	End   uint64
}

func (r Range) Count() int {
	return int(r.End - r.Start + 1)
}

// Allocator hands out disjoint, monotonically increasing identifier ranges
// per stream, safe for arbitrary concurrent callers.
type Allocator interface {
	Reserve(ctx context.Context, stream string, count int) (Range, error)
}

func validateReserve(stream string, count int) error {
	if len(stream) == 0 {
		return types.ErrInvalidArgument
	}

	if count < 1 {
		return types.ErrInvalidArgument
	}

	return nil
}
