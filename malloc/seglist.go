package malloc

import (
	"math/bits"

	"github.com/segalloc/segalloc/malloc/internal/raw"
)

// classOf returns the segregated-list bucket a block of the given
// size belongs to: bucket 0 holds blocks <= 32 bytes, bucket i holds
// blocks in (32*2^(i-1), 32*2^i] for 1 <= i <= 10, and bucket 11
// holds everything larger than 32768. This is the same power-of-two
// ladder buddy.go's getOrderForSize walks via bits.Len, just rooted
// at 32 instead of at the allocator's block size.
func classOf(size uintptr) int {
	if size <= minBlockSize {
		return 0
	}
	c := bits.Len(uint((size - 1) / minBlockSize))
	if c >= numClasses {
		c = numClasses - 1
	}
	return c
}

func (a *Allocator) bucketSlot(c int) uintptr { return uintptr(c) * wordSize }

func (a *Allocator) bucketHead(c int) uintptr {
	return uintptr(raw.ReadWord(a.base, a.bucketSlot(c)))
}

func (a *Allocator) setBucketHead(c int, hdrOff uintptr) {
	raw.WriteWord(a.base, a.bucketSlot(c), uint64(hdrOff))
}

// insertFree threads a free block onto the head of its size class's
// list. Callers must have already written the block's header/footer
// as free.
func (a *Allocator) insertFree(hdrOff, size uintptr) {
	c := classOf(size)
	payload := raw.PayloadOffset(hdrOff)
	head := a.bucketHead(c)

	raw.SetNextFree(a.base, payload, head)
	raw.SetPrevFree(a.base, payload, raw.Null)
	if head != raw.Null {
		raw.SetPrevFree(a.base, raw.PayloadOffset(head), hdrOff)
	}
	a.setBucketHead(c, hdrOff)
}

// unlinkFree removes a free block from its size class's list. The
// four cases are handled explicitly rather than collapsed through a
// shared "is this the head" branch, so a block with both neighbors
// absent doesn't fall through to a case that dereferences a null
// link.
func (a *Allocator) unlinkFree(hdrOff, size uintptr) {
	c := classOf(size)
	payload := raw.PayloadOffset(hdrOff)
	next := raw.NextFree(a.base, payload)
	prev := raw.PrevFree(a.base, payload)

	switch {
	case prev == raw.Null && next == raw.Null:
		a.setBucketHead(c, raw.Null)
	case prev == raw.Null && next != raw.Null:
		a.setBucketHead(c, next)
		raw.SetPrevFree(a.base, raw.PayloadOffset(next), raw.Null)
	case prev != raw.Null && next == raw.Null:
		raw.SetNextFree(a.base, raw.PayloadOffset(prev), raw.Null)
	default:
		raw.SetNextFree(a.base, raw.PayloadOffset(prev), next)
		raw.SetPrevFree(a.base, raw.PayloadOffset(next), prev)
	}
}
