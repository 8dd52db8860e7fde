package malloc

import "testing"

func TestAlignUp(t *testing.T) {
	tests := []struct{ n, align, want uintptr }{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{100, 16, 112},
	}
	for _, tt := range tests {
		if got := alignUp(tt.n, tt.align); got != tt.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", tt.n, tt.align, got, tt.want)
		}
	}
}

func TestRequestToBlockSizeFloorsAtMinimum(t *testing.T) {
	if got := requestToBlockSize(1); got != minBlockSize {
		t.Errorf("requestToBlockSize(1) = %d, want %d", got, minBlockSize)
	}
}

func TestRequestToBlockSizeIsAligned(t *testing.T) {
	for _, size := range []uintptr{1, 15, 16, 17, 100, 4000} {
		got := requestToBlockSize(size)
		if got%alignment != 0 {
			t.Errorf("requestToBlockSize(%d) = %d, not %d-aligned", size, got, alignment)
		}
		if got < size+wordSize {
			t.Errorf("requestToBlockSize(%d) = %d, too small to hold the request plus a header", size, got)
		}
	}
}
