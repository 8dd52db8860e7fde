package malloc

import (
	"fmt"

	"github.com/segalloc/segalloc/malloc/internal/fingerprint"
	"github.com/segalloc/segalloc/malloc/internal/raw"
)

// CheckInvariants walks the entire heap and cross-checks it against
// the segregated free lists. It returns the first violation found,
// wrapped in ErrInvariantViolation; a nil return means the heap is
// internally consistent. It's O(heap size) and meant for tests and
// Config.DebugChecks, not production hot paths.
//
// The checks:
//  1. every free block's header and footer agree
//  2. no two free blocks are ever adjacent (coalescing missed one)
//  3. every block's prev-alloc bit matches the actual alloc state of
//     its predecessor
//  4. the block list's total size matches what the provider has
//     handed out, so no block overlaps or gaps exist
//  5. every block reachable from a bucket is actually free and sits
//     in the bucket its size maps to
//  6. the count of free blocks found walking the block list matches
//     the count found walking the buckets, so no free block is lost
//     from, or duplicated in, the index
func (a *Allocator) CheckInvariants() error {
	listFreeCount, err := a.walkBlockList()
	if err != nil {
		return err
	}
	bucketFreeCount, err := a.walkBuckets()
	if err != nil {
		return err
	}
	if listFreeCount != bucketFreeCount {
		return fmt.Errorf("%w: block list has %d free blocks, buckets have %d", ErrInvariantViolation, listFreeCount, bucketFreeCount)
	}
	return nil
}

func (a *Allocator) walkBlockList() (freeCount int, err error) {
	prevAllocExpected := true // the prologue is allocated
	cur := a.heapStart
	total := uintptr(0)

	for {
		size, alloc, prevAlloc := raw.ReadHeader(a.base, cur)
		if prevAlloc != prevAllocExpected {
			return 0, a.violation(cur, "prev-alloc bit disagrees with predecessor's actual state")
		}
		if size == 0 {
			break // epilogue
		}
		total += size

		if !alloc {
			freeCount++
			footerSize, footerAlloc, footerPrevAlloc := raw.ReadHeader(a.base, raw.FooterOffset(cur, size))
			if footerSize != size || footerAlloc || footerPrevAlloc != prevAlloc {
				return 0, a.violation(cur, "header and footer disagree")
			}
		}

		next := raw.NextHeaderOffset(cur, size)
		_, nextAlloc, _ := raw.ReadHeader(a.base, next)
		if !alloc && !nextAlloc {
			return 0, a.violation(cur, "two free blocks are adjacent")
		}

		prevAllocExpected = alloc
		cur = next
	}

	// High() includes the epilogue header's own word, which isn't
	// part of any real block's size.
	managed := uintptr(a.provider.High()) - uintptr(a.base) - a.heapStart - wordSize
	if total != managed {
		return 0, fmt.Errorf("%w: block sizes sum to %d bytes, managed region is %d", ErrInvariantViolation, total, managed)
	}
	return freeCount, nil
}

func (a *Allocator) walkBuckets() (freeCount int, err error) {
	for c := 0; c < numClasses; c++ {
		for cur := a.bucketHead(c); cur != raw.Null; cur = raw.NextFree(a.base, raw.PayloadOffset(cur)) {
			size, alloc, _ := raw.ReadHeader(a.base, cur)
			if alloc {
				return 0, a.violation(cur, "bucket-listed block is marked allocated")
			}
			if classOf(size) != c {
				return 0, fmt.Errorf("%w: block at offset %d (size %d) belongs in bucket %d, found in bucket %d", ErrInvariantViolation, cur, size, classOf(size), c)
			}
			freeCount++
		}
	}
	return freeCount, nil
}

func (a *Allocator) violation(hdrOff uintptr, msg string) error {
	return fmt.Errorf("%w: offset %d: %s", ErrInvariantViolation, hdrOff, msg)
}

// Fingerprint returns a cheap hash of the entire managed region,
// bucket index included. Two successive calls returning the same
// value is strong evidence no allocation, free, or heap corruption
// has touched the region in between; it is not a correctness check
// on its own, CheckInvariants is.
func (a *Allocator) Fingerprint() uint64 {
	n := uintptr(a.provider.High()) - uintptr(a.base)
	return fingerprint.Hash(a.base, n)
}
