package main

import (
	"fmt"
	"time"

	"github.com/segalloc/segalloc/malloc"
)

// result summarizes one trace file's replay against a fresh Allocator.
type result struct {
	name     string
	ops      int
	duration time.Duration
	peakLive int
}

// replay drives ops against a new Allocator built from cfg, tracking
// which id maps to which live block the way a real caller's bookkeeping
// would.
func replay(name string, ops []op, cfg malloc.Config) (*result, error) {
	a, err := malloc.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	live := make(map[int][]byte, len(ops))
	liveBytes, peakLive := 0, 0

	start := time.Now()
	for i, o := range ops {
		switch o.kind {
		case opAlloc:
			b, err := a.Alloc(o.size)
			if err != nil {
				return nil, fmt.Errorf("%s: op %d: alloc %d: %w", name, i, o.size, err)
			}
			live[o.id] = b
			liveBytes += o.size

		case opFree:
			b, ok := live[o.id]
			if !ok {
				return nil, fmt.Errorf("%s: op %d: free of unknown id %d", name, i, o.id)
			}
			a.Free(b)
			delete(live, o.id)
			liveBytes -= len(b)

		case opResize:
			old := live[o.id]
			fresh, err := a.Realloc(old, o.size)
			if err != nil {
				return nil, fmt.Errorf("%s: op %d: resize id %d to %d: %w", name, i, o.id, o.size, err)
			}
			liveBytes += o.size - len(old)
			live[o.id] = fresh
		}
		if liveBytes > peakLive {
			peakLive = liveBytes
		}
	}

	return &result{
		name:     name,
		ops:      len(ops),
		duration: time.Since(start),
		peakLive: peakLive,
	}, nil
}
