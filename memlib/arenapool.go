/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package memlib

import (
	"math/bits"
	"sync"
	"unsafe"
)

// Arenas are pooled by power-of-two size class, the same scheme
// cache/mempool.go uses for general-purpose byte buffers. Reusing a
// previous multi-megabyte reservation instead of re-making one keeps
// repeated allocator construction (table tests, trace-replay batches)
// off the GC's back.
const (
	minArenaPoolSize = 64 << 10 // 64KB
	maxArenaPoolSize = 4 << 30  // 4GB
)

type arenaPool struct {
	sync.Pool
	size int
}

var pools []*arenaPool

// bits2idx maps bits.Len(size) to the index of `pools` whose class
// starts at that size.
var bits2idx [64]int

func init() {
	i := 0
	for sz := minArenaPoolSize; sz <= maxArenaPoolSize; sz <<= 1 {
		p := &arenaPool{size: sz}
		p.New = func() interface{} {
			b := make([]byte, p.size)
			return &b
		}
		pools = append(pools, p)
		bits2idx[bits.Len(uint(p.size))] = i
		i++
	}
}

func poolIndex(sz int) int {
	if sz <= minArenaPoolSize {
		return 0
	}
	i := bits2idx[bits.Len(uint(sz))]
	if uint(sz)&(uint(sz)-1) == 0 {
		// exact power of two fits its own class
		return i
	}
	return i + 1
}

// GetArena returns a zeroed []byte of at least size bytes, reusing a
// previously released arena of the same size class when one is
// available. The returned slice's length equals its capacity, which
// is a power of two >= minArenaPoolSize for sizes up to
// maxArenaPoolSize; a larger size gets an unpooled slice of exactly
// that many bytes. Arenas obtained this
// way should be returned via PutArena once no Provider references
// them; it's a pure optimization and PutArena is safe to skip.
func GetArena(size int) []byte {
	if size < minArenaPoolSize {
		size = minArenaPoolSize
	}
	i := poolIndex(size)
	if i >= len(pools) {
		return make([]byte, size)
	}
	p := pools[i]
	bp, _ := p.Get().(*[]byte)
	if bp == nil {
		b := make([]byte, p.size)
		return b
	}
	b := *bp
	for j := range b {
		b[j] = 0
	}
	return b
}

// PutArena returns an arena obtained from GetArena to the shared
// pool. Slices not obtained from GetArena (wrong capacity, or not a
// power of two) are silently ignored rather than pooled, since
// accepting them would let a foreign buffer corrupt a class's size
// invariant.
func PutArena(b []byte) {
	sz := cap(b)
	if sz < minArenaPoolSize || sz&(sz-1) != 0 {
		return
	}
	i := poolIndex(sz)
	if i >= len(pools) || pools[i].size != sz {
		return
	}
	b = b[:sz]
	pools[i].Put(&b)
}

// PooledProvider is a Provider whose backing arena comes from the
// shared arena pool instead of a dedicated make([]byte, ...). Useful
// for short-lived allocator instances (tests, one trace file) where
// repeatedly reserving tens of megabytes would otherwise dominate
// GC time. Like ReservedProvider it pads its arena by 16 bytes so
// Low() can always land on a 16-byte boundary.
type PooledProvider struct {
	data   []byte
	origin uintptr
	used   uintptr
}

// NewPooledProvider borrows an arena of at least capacity bytes from
// the shared pool.
func NewPooledProvider(capacity int) *PooledProvider {
	data := GetArena(capacity + 16)
	return &PooledProvider{data: data, origin: align16(data)}
}

func (p *PooledProvider) capacity() uintptr { return uintptr(len(p.data)) - 16 }

// Grow implements Provider.
func (p *PooledProvider) Grow(n uintptr) (unsafe.Pointer, error) {
	if n == 0 {
		return p.High(), nil
	}
	if p.capacity()-p.used < n {
		return nil, ErrHeapExhausted
	}
	start := p.used
	p.used += n
	return unsafe.Add(p.Low(), start), nil
}

// Low implements Provider.
func (p *PooledProvider) Low() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(&p.data[0]), p.origin)
}

// High implements Provider.
func (p *PooledProvider) High() unsafe.Pointer { return unsafe.Add(p.Low(), p.used) }

// Release returns the backing arena to the shared pool. The provider
// must not be used afterward.
func (p *PooledProvider) Release() {
	if p.data != nil {
		PutArena(p.data)
		p.data = nil
	}
	p.used = 0
}
