// Package malloc implements a general-purpose dynamic memory
// allocator over a single contiguous, growable byte region supplied
// by a memlib.Provider.
//
// The design is a segregated-fit allocator: an implicit block list
// threaded through header/footer words carries every byte of the
// managed region, and twelve size-classed doubly-linked free lists
// (threaded through the payload of free blocks only) make immediate
// coalescing O(1) and limit a best-fit search to scanning the lists
// from the request's size class upward.
//
// Allocator values are not safe for concurrent use; callers serialize
// their own access, same as any bump/arena allocator.
package malloc
