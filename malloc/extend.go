package malloc

import "github.com/segalloc/segalloc/malloc/internal/raw"

// extend grows the managed region by nBytes (always a byte count,
// never a word count) and installs a new free block in the space,
// coalescing it with the heap's previous tail block if that was also
// free. It returns the header offset of the resulting free block.
//
// The new block's header is written into what was, until this call,
// the epilogue header's slot: the provider's Grow returns the address
// immediately after that slot, so the new block's header sits one
// word behind it and the epilogue is rewritten in the last word of
// the freshly granted bytes.
func (a *Allocator) extend(nBytes uintptr) (uintptr, error) {
	growBy := alignUp(nBytes, alignment)

	start, err := a.provider.Grow(growBy)
	if err != nil {
		return raw.Null, err
	}
	startOff := uintptr(start) - uintptr(a.base)
	hdrOff := startOff - wordSize

	_, _, prevAlloc := raw.ReadHeader(a.base, hdrOff) // old epilogue's prev-alloc bit, carried over
	raw.WriteHeader(a.base, hdrOff, growBy, false, prevAlloc)
	raw.WriteFooter(a.base, hdrOff, growBy, false, prevAlloc)
	a.insertFree(hdrOff, growBy)

	newEpilogue := raw.NextHeaderOffset(hdrOff, growBy)
	raw.WriteHeader(a.base, newEpilogue, 0, true, false)

	return a.coalesce(hdrOff), nil
}
