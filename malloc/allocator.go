package malloc

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/segalloc/segalloc/malloc/internal/raw"
	"github.com/segalloc/segalloc/memlib"
)

// indexBytes is the space reserved at the very start of the region
// for the segregated free-list bucket heads: one word per class.
const indexBytes = numClasses * wordSize

// Config controls how a new Allocator is built.
type Config struct {
	// Provider supplies the backing region. A nil Provider gets a
	// memlib.ReservedProvider sized to memlib.DefaultCapacity.
	Provider memlib.Provider
	// InitialGrowth is how many bytes New extends the heap by once
	// the bucket index and prologue/epilogue are laid down. Zero
	// selects a 4KB default.
	InitialGrowth uintptr
	// DebugChecks, when true, runs CheckInvariants at the end of
	// every Alloc, Free, and Realloc call, panicking on the first
	// violation. It's for development and tests; the cost is a full
	// heap walk per call.
	DebugChecks bool
}

// DefaultConfig returns the Config New uses when called with the
// zero value.
func DefaultConfig() Config {
	return Config{InitialGrowth: initialExtendSize}
}

// Allocator manages a single heap built on top of a memlib.Provider.
// It is not safe for concurrent use by multiple goroutines; callers
// needing several independent heaps run one Allocator per goroutine
// (see concurrency/workpool) rather than sharing one.
type Allocator struct {
	provider  memlib.Provider
	base      unsafe.Pointer
	heapStart uintptr
	cfg       Config
}

// New builds an Allocator and performs its initial heap extension.
func New(cfg Config) (*Allocator, error) {
	if cfg.Provider == nil {
		cfg.Provider = memlib.NewReservedProvider(0)
	}
	if cfg.InitialGrowth == 0 {
		cfg.InitialGrowth = initialExtendSize
	}

	a := &Allocator{provider: cfg.Provider, cfg: cfg}

	// index (numClasses words) + pad (1 word) + prologue header +
	// prologue footer + epilogue header, all in one reservation. A
	// single Grow call is enough; none of these pieces need their own
	// address independent of the others.
	const prefixBytes = indexBytes + wordSize /* pad */ + wordSize /* prologue hdr */ + wordSize /* prologue ftr */ + wordSize /* epilogue hdr */

	// This is the provider's first Grow call, so it returns Low()
	// itself: the index occupies the very first bytes of the region.
	if _, err := cfg.Provider.Grow(prefixBytes); err != nil {
		return nil, fmt.Errorf("malloc: new: %w", err)
	}
	a.base = cfg.Provider.Low()

	for c := 0; c < numClasses; c++ {
		a.setBucketHead(c, raw.Null)
	}

	prologueHdr := indexBytes + wordSize
	raw.WriteHeader(a.base, prologueHdr, 2*wordSize, true, true)
	raw.WriteFooter(a.base, prologueHdr, 2*wordSize, true, true)
	a.heapStart = raw.NextHeaderOffset(prologueHdr, 2*wordSize)

	// epilogue: zero-size allocated sentinel block. Its prev-alloc
	// bit mirrors the prologue's alloc bit, which is always true.
	raw.WriteHeader(a.base, a.heapStart, 0, true, true)

	if _, err := a.extend(cfg.InitialGrowth); err != nil {
		return nil, fmt.Errorf("malloc: new: %w", err)
	}
	return a, nil
}

// Alloc reserves at least size bytes and returns a slice over them.
// The slice's capacity may exceed size; callers that need the full
// usable span can re-slice up to cap(). A non-positive size returns
// ErrInvalidSize without mutating the heap.
func (a *Allocator) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	asize := requestToBlockSize(uintptr(size))

	hdrOff, ok := a.findFit(asize)
	if !ok {
		grown, err := a.extend(a.growthFor(asize))
		if err != nil {
			return nil, fmt.Errorf("malloc: alloc: %w", errors.Join(ErrOutOfMemory, err))
		}
		hdrOff = grown
	}
	a.place(hdrOff, asize)

	block := a.payloadSlice(hdrOff, size)
	a.maybeCheckInvariants()
	return block, nil
}

// growthFor decides how many bytes to extend the heap by when no
// free block fits a request of the given block size: at least the
// configured chunk size, but enough to satisfy an outsized request in
// one extension.
func (a *Allocator) growthFor(asize uintptr) uintptr {
	if asize > a.cfg.InitialGrowth {
		return asize
	}
	return a.cfg.InitialGrowth
}

// Free releases a block previously returned by Alloc, Calloc, or
// Realloc. Free(nil) is a no-op. Freeing a block twice, or a slice
// not obtained from this Allocator, panics rather than silently
// corrupting the heap.
func (a *Allocator) Free(block []byte) {
	if block == nil {
		return
	}
	hdrOff := a.headerOffsetOf(block)
	size, alloc, prevAlloc := raw.ReadHeader(a.base, hdrOff)
	if !alloc {
		panic("malloc: double free")
	}

	raw.WriteHeader(a.base, hdrOff, size, false, prevAlloc)
	raw.WriteFooter(a.base, hdrOff, size, false, prevAlloc)
	raw.SetPrevAlloc(a.base, raw.NextHeaderOffset(hdrOff, size), false)
	a.insertFree(hdrOff, size)
	a.coalesce(hdrOff)
	a.maybeCheckInvariants()
}

// Realloc resizes a previously allocated block, preserving its
// content up to the smaller of the old and new sizes. Realloc(nil,
// n) behaves like Alloc(n); Realloc(block, 0) behaves like
// Free(block) and returns (nil, nil).
func (a *Allocator) Realloc(block []byte, newSize int) ([]byte, error) {
	if block == nil {
		return a.Alloc(newSize)
	}
	if newSize <= 0 {
		a.Free(block)
		return nil, nil
	}

	fresh, err := a.Alloc(newSize)
	if err != nil {
		return nil, err
	}
	n := len(block)
	if newSize < n {
		n = newSize
	}
	copy(fresh, block[:n])
	a.Free(block)
	return fresh, nil
}

// Calloc allocates space for n elements of size bytes each and
// zero-initializes it. The n*size multiplication is checked for
// overflow before it reaches Alloc.
func (a *Allocator) Calloc(n, size int) ([]byte, error) {
	if n <= 0 || size <= 0 {
		return nil, ErrInvalidSize
	}
	total := n * size
	if total/n != size {
		return nil, fmt.Errorf("malloc: calloc: %w", ErrOverflow)
	}

	block, err := a.Alloc(total)
	if err != nil {
		return nil, err
	}
	for i := range block {
		block[i] = 0
	}
	return block, nil
}

// payloadSlice returns a []byte view of a block's payload, capped at
// the block's full usable span (block size minus the header word)
// and length-limited to the caller's requested size.
func (a *Allocator) payloadSlice(hdrOff uintptr, size int) []byte {
	blockSize, _, _ := raw.ReadHeader(a.base, hdrOff)
	usable := int(blockSize - wordSize)
	ptr := unsafe.Add(a.base, raw.PayloadOffset(hdrOff))
	return unsafe.Slice((*byte)(ptr), usable)[:size]
}

// headerOffsetOf recovers a block's header offset from a slice
// previously returned by payloadSlice, and panics if the slice's data
// pointer doesn't fall within this Allocator's managed region.
func (a *Allocator) headerOffsetOf(block []byte) uintptr {
	ptr := unsafe.Pointer(&block[0])
	if uintptr(ptr) < uintptr(a.base) || uintptr(ptr) >= uintptr(a.provider.High()) {
		panic("malloc: block not owned by this allocator")
	}
	payloadOff := uintptr(ptr) - uintptr(a.base)
	return raw.HeaderOffset(payloadOff)
}

func (a *Allocator) maybeCheckInvariants() {
	if a.cfg.DebugChecks {
		if err := a.CheckInvariants(); err != nil {
			panic(err)
		}
	}
}
