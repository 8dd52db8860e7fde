// Package raw isolates every unsafe.Pointer/offset computation the
// allocator needs behind a small set of pure functions. Nothing above
// this package knows that a header is "eight bytes before the
// payload" or that a free block's link words live at the start of its
// payload; raw is the only place that fact is written down.
//
// All addresses are represented as byte offsets (uintptr) from a
// stable arena base, not as Go pointers. Offset 0 is reserved and
// never a valid block address (the region layout always places the
// first real header past the index and prologue), so it doubles as
// the free-list "null" sentinel.
package raw

import "unsafe"

// WordSize is the native machine word: every header, footer, and
// free-list link occupies exactly one word.
const WordSize = uintptr(8)

const (
	allocBit     = uint64(1)
	prevAllocBit = uint64(2)
	flagMask     = uint64(7)
)

// Null is the sentinel offset denoting "no block".
const Null = uintptr(0)

// ReadWord reads the word at base+off.
func ReadWord(base unsafe.Pointer, off uintptr) uint64 {
	return *(*uint64)(unsafe.Add(base, off))
}

// WriteWord writes v to the word at base+off.
func WriteWord(base unsafe.Pointer, off uintptr, v uint64) {
	*(*uint64)(unsafe.Add(base, off)) = v
}

// Pack encodes a size and the two status bits into a header/footer word.
func Pack(size uintptr, alloc, prevAlloc bool) uint64 {
	w := uint64(size) &^ flagMask
	if alloc {
		w |= allocBit
	}
	if prevAlloc {
		w |= prevAllocBit
	}
	return w
}

// Size extracts the block size from a header/footer word.
func Size(word uint64) uintptr { return uintptr(word &^ flagMask) }

// Alloc extracts this block's allocation bit.
func Alloc(word uint64) bool { return word&allocBit != 0 }

// PrevAlloc extracts the previous block's allocation bit.
func PrevAlloc(word uint64) bool { return word&prevAllocBit != 0 }

// ReadHeader reads and decodes the header word at hdrOff.
func ReadHeader(base unsafe.Pointer, hdrOff uintptr) (size uintptr, alloc, prevAlloc bool) {
	w := ReadWord(base, hdrOff)
	return Size(w), Alloc(w), PrevAlloc(w)
}

// WriteHeader encodes and writes a header word at hdrOff.
func WriteHeader(base unsafe.Pointer, hdrOff uintptr, size uintptr, alloc, prevAlloc bool) {
	WriteWord(base, hdrOff, Pack(size, alloc, prevAlloc))
}

// WriteFooter encodes and writes a footer word for a block of the
// given size starting at hdrOff. Callers must only do this for free
// blocks; allocated blocks have no footer (the word is payload).
func WriteFooter(base unsafe.Pointer, hdrOff, size uintptr, alloc, prevAlloc bool) {
	WriteWord(base, FooterOffset(hdrOff, size), Pack(size, alloc, prevAlloc))
}

// SetPrevAlloc rewrites only the prev-alloc bit of the header at
// hdrOff, masking the existing word rather than OR-ing the new bit in.
// An unconditional OR can only set the bit, never clear it, so it
// would leave a stale 1 once a predecessor block is freed.
func SetPrevAlloc(base unsafe.Pointer, hdrOff uintptr, prevAlloc bool) {
	w := ReadWord(base, hdrOff) &^ prevAllocBit
	if prevAlloc {
		w |= prevAllocBit
	}
	WriteWord(base, hdrOff, w)
}

// PayloadOffset returns the payload offset for a block whose header is at hdrOff.
func PayloadOffset(hdrOff uintptr) uintptr { return hdrOff + WordSize }

// HeaderOffset returns the header offset for a block whose payload is at payloadOff.
func HeaderOffset(payloadOff uintptr) uintptr { return payloadOff - WordSize }

// FooterOffset returns the footer offset of a block of the given size
// starting at hdrOff.
func FooterOffset(hdrOff, size uintptr) uintptr { return hdrOff + size - WordSize }

// NextHeaderOffset returns the header offset of the block immediately
// following a block of the given size starting at hdrOff.
func NextHeaderOffset(hdrOff, size uintptr) uintptr { return hdrOff + size }

// PrevFooterOffset returns the offset of the word immediately
// preceding hdrOff. It is only meaningful to decode as a footer when
// the previous block is free (allocated blocks omit their footer).
func PrevFooterOffset(hdrOff uintptr) uintptr { return hdrOff - WordSize }

// PrevHeaderOffset returns the header offset of the previous block,
// valid only when the previous block is free (checked by the caller
// via the prev-alloc bit before calling this).
func PrevHeaderOffset(base unsafe.Pointer, hdrOff uintptr) uintptr {
	prevSize, _, _ := ReadHeader(base, PrevFooterOffset(hdrOff))
	return hdrOff - prevSize
}

// NextFree reads the "next free block" link word from a free block's payload.
func NextFree(base unsafe.Pointer, payloadOff uintptr) uintptr {
	return uintptr(ReadWord(base, payloadOff))
}

// SetNextFree writes the "next free block" link word.
func SetNextFree(base unsafe.Pointer, payloadOff, next uintptr) {
	WriteWord(base, payloadOff, uint64(next))
}

// PrevFree reads the "previous free block" link word from a free block's payload.
func PrevFree(base unsafe.Pointer, payloadOff uintptr) uintptr {
	return uintptr(ReadWord(base, payloadOff+WordSize))
}

// SetPrevFree writes the "previous free block" link word.
func SetPrevFree(base unsafe.Pointer, payloadOff, prev uintptr) {
	WriteWord(base, payloadOff+WordSize, uint64(prev))
}
