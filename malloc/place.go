package malloc

import "github.com/segalloc/segalloc/malloc/internal/raw"

// place carves asize bytes out of the free block at hdrOff, splitting
// off the remainder as a new free block when it's large enough to be
// worth keeping. hdrOff must come from findFit or extend and must not
// already be unlinked.
func (a *Allocator) place(hdrOff, asize uintptr) {
	csize, _, prevAlloc := raw.ReadHeader(a.base, hdrOff)
	a.unlinkFree(hdrOff, csize)

	if csize-asize >= minSplitRemainder {
		raw.WriteHeader(a.base, hdrOff, asize, true, prevAlloc)

		tailOff := raw.NextHeaderOffset(hdrOff, asize)
		tailSize := csize - asize
		raw.WriteHeader(a.base, tailOff, tailSize, false, true)
		raw.WriteFooter(a.base, tailOff, tailSize, false, true)
		a.insertFree(tailOff, tailSize)
		return
	}

	raw.WriteHeader(a.base, hdrOff, csize, true, prevAlloc)
	nextOff := raw.NextHeaderOffset(hdrOff, csize)
	raw.SetPrevAlloc(a.base, nextOff, true)
}
