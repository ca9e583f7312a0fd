package sequence

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryAllocator keeps stream marks in process memory. It backs tests and
// embedded single-node deployments; the contract is identical to the
// postgres allocator minus durability.
type MemoryAllocator struct {
	mu      sync.Mutex
	streams map[string]*uint64
}

func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{streams: make(map[string]*uint64)}
}

func (a *MemoryAllocator) Reserve(ctx context.Context, stream string, count int) (Range, error) {
	if err := validateReserve(stream, count); err != nil {
		return Range{}, err
	}

	a.mu.Lock()
	mark, ok := a.streams[stream]
	if !ok {
		mark = new(uint64)
		a.streams[stream] = mark
	}
	a.mu.Unlock()

	end := atomic.AddUint64(mark, uint64(count))

	return Range{Start: end - uint64(count) + 1, End: end}, nil
}
