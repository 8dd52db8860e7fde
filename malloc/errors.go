package malloc

import "errors"

// ErrInvalidSize is returned by Alloc and Calloc for a non-positive
// requested size.
var ErrInvalidSize = errors.New("malloc: invalid size")

// ErrOverflow is returned by Calloc when n*size overflows an int.
var ErrOverflow = errors.New("malloc: element count overflow")

// ErrOutOfMemory is returned when the heap provider can't grow far
// enough to satisfy a request. It wraps the provider's own error, so
// errors.Is(err, memlib.ErrHeapExhausted) still works on the result.
var ErrOutOfMemory = errors.New("malloc: out of memory")

// ErrInvariantViolation is returned by CheckInvariants. Corruption
// severe enough to make further bookkeeping unsafe (a block pointer
// outside the managed region, a double free) panics instead, the same
// split buddy.go draws between "detected invalid usage" and "reports
// a finding."
var ErrInvariantViolation = errors.New("malloc: heap invariant violated")
