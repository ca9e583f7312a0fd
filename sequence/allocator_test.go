package sequence

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundwise/ledgex/types"
)

func TestReserveRejectsBadArguments(t *testing.T) {
	allocator := NewMemoryAllocator()

	_, err := allocator.Reserve(context.Background(), "ledger_entries", 0)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = allocator.Reserve(context.Background(), "ledger_entries", -5)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = allocator.Reserve(context.Background(), "", 1)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestReserveReturnsContiguousRanges(t *testing.T) {
	allocator := NewMemoryAllocator()

	first, err := allocator.Reserve(context.Background(), "ledger_entries", 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Start)
	assert.Equal(t, uint64(3), first.End)
	assert.Equal(t, 3, first.Count())

	second, err := allocator.Reserve(context.Background(), "ledger_entries", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), second.Start)
	assert.Equal(t, uint64(4), second.End)
}

func TestReserveStreamsAreIndependent(t *testing.T) {
	allocator := NewMemoryAllocator()

	a, err := allocator.Reserve(context.Background(), "ledger_entries", 10)
	require.NoError(t, err)

	b, err := allocator.Reserve(context.Background(), "execution_records", 10)
	require.NoError(t, err)

	assert.Equal(t, a.Start, b.Start)
	assert.Equal(t, a.End, b.End)
}

// N goroutines each reserve random counts from one stream; the merged sorted
// ranges must never overlap and must be gap-free for fully used reservations.
func TestReserveDisjointUnderConcurrency(t *testing.T) {
	allocator := NewMemoryAllocator()

	const workers = 32
	const reservationsPerWorker = 50

	var mu sync.Mutex
	var ranges []Range

	var wg sync.WaitGroup
	total := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		seed := rand.New(rand.NewSource(int64(i)))

		go func(rng *rand.Rand) {
			defer wg.Done()

			for j := 0; j < reservationsPerWorker; j++ {
				count := 1 + rng.Intn(17)

				r, err := allocator.Reserve(context.Background(), "ledger_entries", count)
				if err != nil {
					t.Error(err)
					return
				}

				mu.Lock()
				ranges = append(ranges, r)
				total += count
				mu.Unlock()
			}
		}(seed)
	}

	wg.Wait()

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })

	require.Len(t, ranges, workers*reservationsPerWorker)
	assert.Equal(t, uint64(1), ranges[0].Start)

	for i := 1; i < len(ranges); i++ {
		prev, cur := ranges[i-1], ranges[i]
		require.Greaterf(t, cur.Start, prev.End, "range [%d,%d] overlaps [%d,%d]", cur.Start, cur.End, prev.Start, prev.End)
		require.Equalf(t, prev.End+1, cur.Start, "gap between [%d,%d] and [%d,%d]", prev.Start, prev.End, cur.Start, cur.End)
	}

	assert.Equal(t, uint64(total), ranges[len(ranges)-1].End)
}
