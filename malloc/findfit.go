package malloc

import "github.com/segalloc/segalloc/malloc/internal/raw"

// findFit scans buckets from asize's class upward and returns the
// tightest-fitting free block in the first bucket that has one. Best
// fit is scoped to that bucket, not the whole heap: a block one bucket
// up is never preferred over an exact fit lower down.
func (a *Allocator) findFit(asize uintptr) (uintptr, bool) {
	for c := classOf(asize); c < numClasses; c++ {
		var best uintptr = raw.Null
		var bestSlack uintptr

		for cur := a.bucketHead(c); cur != raw.Null; cur = raw.NextFree(a.base, raw.PayloadOffset(cur)) {
			size, _, _ := raw.ReadHeader(a.base, cur)
			if size < asize {
				continue
			}
			slack := size - asize
			if best == raw.Null || slack < bestSlack {
				best, bestSlack = cur, slack
				if slack == 0 {
					break
				}
			}
		}
		if best != raw.Null {
			return best, true
		}
	}
	return raw.Null, false
}
