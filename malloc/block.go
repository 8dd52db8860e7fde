package malloc

import "github.com/segalloc/segalloc/malloc/internal/raw"

const (
	wordSize = raw.WordSize // 8
	// alignment is the payload alignment every returned slice honors.
	alignment = 16
	// minBlockSize is the smallest block the allocator ever hands out
	// or splits off: one header word, the two free-list link words a
	// free block carries in its payload, and one footer word.
	minBlockSize = 32
	// headerOverhead is the bookkeeping asize reserves on top of a
	// request: one header word plus one footer word's worth, so a
	// block that later becomes free already has room for its footer
	// without growing.
	headerOverhead = 2 * wordSize
	// numClasses is the number of segregated free-list buckets.
	numClasses = 12
	// minSplitRemainder is the smallest leftover place() will carve
	// off into its own free block; below this it's folded into the
	// allocated block instead. Equal to one minimum block, so a split
	// never produces a free block smaller than the allocator can track.
	minSplitRemainder = minBlockSize
	// initialExtendSize is how much New grows the heap by once the
	// bookkeeping prologue/epilogue are in place.
	initialExtendSize = 4096
)

// alignUp rounds n up to the next multiple of align, which must be a
// power of two.
func alignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

// requestToBlockSize converts a caller-requested payload size into
// the block size (including header/footer overhead) the allocator
// actually carves out, applying the minimum block floor.
func requestToBlockSize(size uintptr) uintptr {
	asize := alignUp(size+headerOverhead, alignment)
	if asize < minBlockSize {
		asize = minBlockSize
	}
	return asize
}
