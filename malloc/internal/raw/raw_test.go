package raw

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func newArena(t *testing.T, n int) unsafe.Pointer {
	t.Helper()
	buf := make([]byte, n)
	return unsafe.Pointer(&buf[0])
}

func TestPackRoundTrip(t *testing.T) {
	tests := []struct {
		size            uintptr
		alloc, prevAlloc bool
	}{
		{32, false, false},
		{32, true, false},
		{48, false, true},
		{65536, true, true},
	}
	for _, tt := range tests {
		w := Pack(tt.size, tt.alloc, tt.prevAlloc)
		require.Equal(t, tt.size, Size(w))
		require.Equal(t, tt.alloc, Alloc(w))
		require.Equal(t, tt.prevAlloc, PrevAlloc(w))
	}
}

func TestHeaderFooterRoundTrip(t *testing.T) {
	base := newArena(t, 256)
	const hdrOff = 64
	const size = 48

	WriteHeader(base, hdrOff, size, false, true)
	WriteFooter(base, hdrOff, size, false, true)

	gotSize, alloc, prevAlloc := ReadHeader(base, hdrOff)
	require.Equal(t, uintptr(size), gotSize)
	require.False(t, alloc)
	require.True(t, prevAlloc)

	footerSize, footerAlloc, footerPrevAlloc := ReadHeader(base, FooterOffset(hdrOff, size))
	require.Equal(t, gotSize, footerSize)
	require.Equal(t, alloc, footerAlloc)
	require.Equal(t, prevAlloc, footerPrevAlloc)
}

func TestSetPrevAllocMasksRatherThanOrs(t *testing.T) {
	base := newArena(t, 128)
	const hdrOff = 16
	WriteHeader(base, hdrOff, 32, true, true)

	SetPrevAlloc(base, hdrOff, false)
	size, alloc, prevAlloc := ReadHeader(base, hdrOff)
	require.Equal(t, uintptr(32), size)
	require.True(t, alloc)
	require.False(t, prevAlloc, "SetPrevAlloc(false) must clear the bit, not leave it set via OR")

	SetPrevAlloc(base, hdrOff, true)
	_, _, prevAlloc = ReadHeader(base, hdrOff)
	require.True(t, prevAlloc)
}

func TestNextPrevHeaderOffsets(t *testing.T) {
	base := newArena(t, 256)
	const hdrOff = 32
	const size = 48

	WriteHeader(base, hdrOff, size, false, true)
	WriteFooter(base, hdrOff, size, false, true)

	next := NextHeaderOffset(hdrOff, size)
	require.Equal(t, uintptr(hdrOff+size), next)

	WriteHeader(base, next, 32, true, false)
	prev := PrevHeaderOffset(base, next)
	require.Equal(t, uintptr(hdrOff), prev)
}

func TestFreeLinkWords(t *testing.T) {
	base := newArena(t, 256)
	const payloadOff = 80

	SetNextFree(base, payloadOff, 200)
	SetPrevFree(base, payloadOff, Null)

	require.Equal(t, uintptr(200), NextFree(base, payloadOff))
	require.Equal(t, Null, PrevFree(base, payloadOff))
}
