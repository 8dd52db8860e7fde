package malloc

import "github.com/segalloc/segalloc/malloc/internal/raw"

// coalesce merges a just-freed block at hdrOff with whichever
// immediate neighbors are also free, and returns the header offset of
// the resulting block. The caller must have already written hdrOff's
// header/footer as free and inserted it into its bucket; coalesce
// unlinks it again itself if a merge happens.
func (a *Allocator) coalesce(hdrOff uintptr) uintptr {
	size, _, prevAlloc := raw.ReadHeader(a.base, hdrOff)
	nextHdrOff := raw.NextHeaderOffset(hdrOff, size)
	nextSize, nextAlloc, _ := raw.ReadHeader(a.base, nextHdrOff)

	switch {
	case prevAlloc && nextAlloc:
		return hdrOff

	case prevAlloc && !nextAlloc:
		a.unlinkFree(hdrOff, size)
		a.unlinkFree(nextHdrOff, nextSize)
		size += nextSize
		raw.WriteHeader(a.base, hdrOff, size, false, true)
		raw.WriteFooter(a.base, hdrOff, size, false, true)
		a.insertFree(hdrOff, size)
		return hdrOff

	case !prevAlloc && nextAlloc:
		prevHdrOff := raw.PrevHeaderOffset(a.base, hdrOff)
		prevSize, _, prevPrevAlloc := raw.ReadHeader(a.base, prevHdrOff)
		a.unlinkFree(hdrOff, size)
		a.unlinkFree(prevHdrOff, prevSize)
		size += prevSize
		raw.WriteHeader(a.base, prevHdrOff, size, false, prevPrevAlloc)
		raw.WriteFooter(a.base, prevHdrOff, size, false, prevPrevAlloc)
		a.insertFree(prevHdrOff, size)
		return prevHdrOff

	default: // both neighbors free
		prevHdrOff := raw.PrevHeaderOffset(a.base, hdrOff)
		prevSize, _, prevPrevAlloc := raw.ReadHeader(a.base, prevHdrOff)
		a.unlinkFree(hdrOff, size)
		a.unlinkFree(prevHdrOff, prevSize)
		a.unlinkFree(nextHdrOff, nextSize)
		size += prevSize + nextSize
		raw.WriteHeader(a.base, prevHdrOff, size, false, prevPrevAlloc)
		raw.WriteFooter(a.base, prevHdrOff, size, false, prevPrevAlloc)
		a.insertFree(prevHdrOff, size)
		return prevHdrOff
	}
}
