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

// Package fingerprint computes a cheap, order-sensitive hash over a
// raw memory region, word at a time, the way hash/xfnv hashes a byte
// slice. Allocator.Fingerprint uses it so two snapshots of the same
// region can be compared cheaply instead of diffing byte by byte.
//
// The hash has no stability guarantee across architectures, Go
// versions, or process runs, and must never be persisted.
package fingerprint

import "unsafe"

const (
	offset64 = uint64(14695981039346656037)
	prime64  = uint64(1099511628211)
)

// Hash runs FNV-1a over the n bytes starting at base, reading a full
// word at a time where possible.
func Hash(base unsafe.Pointer, n uintptr) uint64 {
	h := offset64
	var i uintptr
	for ; i+8 <= n; i += 8 {
		h ^= *(*uint64)(unsafe.Add(base, i))
		h *= prime64
	}
	for ; i < n; i++ {
		h ^= uint64(*(*byte)(unsafe.Add(base, i)))
		h *= prime64
	}
	return h
}

// HashBytes is a convenience wrapper over a []byte, for callers that
// don't already have an unsafe.Pointer at hand.
func HashBytes(b []byte) uint64 {
	if len(b) == 0 {
		return offset64
	}
	return Hash(unsafe.Pointer(&b[0]), uintptr(len(b)))
}
