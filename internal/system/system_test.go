package system

import (
	"image"
	"syscall"
	"testing"
)

func TestRecommendedWorkers(t *testing.T) {
	if n := RecommendedWorkers(0); n < 1 {
		t.Errorf("Expected at least 1 worker, got %d", n)
	}
	// Absurd per-worker footprint still leaves one worker.
	if n := RecommendedWorkers(1 << 62); n != 1 {
		t.Errorf("Expected 1 worker for a huge footprint, got %d", n)
	}
}

func TestFrameBytes(t *testing.T) {
	if got := FrameBytes(800, 450); got != 1440000 {
		t.Errorf("FrameBytes(800, 450) = %d", got)
	}
}

func TestImagePoolSizes(t *testing.T) {
	p := NewImagePool()
	small := image.Rect(0, 0, 4, 4)
	large := image.Rect(0, 0, 8, 8)

	a := p.Get(small)
	if a.Bounds() != small {
		t.Fatalf("Expected %v, got %v", small, a.Bounds())
	}
	p.Put(a)

	b := p.Get(large)
	if b.Bounds() != large {
		t.Fatalf("Expected %v, got %v", large, b.Bounds())
	}

	// Unknown sizes and nil are ignored.
	p.Put(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	p.Put(nil)
}

func TestSharedPool(t *testing.T) {
	r := image.Rect(0, 0, 2, 2)
	img := GetImage(r)
	if img.Bounds() != r {
		t.Fatalf("Unexpected bounds %v", img.Bounds())
	}
	PutImage(img, nil)
}

func TestOpenFilesNeeded(t *testing.T) {
	tests := []struct {
		workers int
		want    uint64
	}{
		{0, ReservedFiles + 1},
		{1, ReservedFiles + 1},
		{16, ReservedFiles + 16},
	}
	for _, tt := range tests {
		if got := OpenFilesNeeded(tt.workers); got != tt.want {
			t.Errorf("OpenFilesNeeded(%d) = %d, want %d", tt.workers, got, tt.want)
		}
	}
}

func TestRaiseOpenFilesLimit(t *testing.T) {
	var before syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &before); err != nil {
		t.Skipf("getrlimit unavailable: %v", err)
	}

	// A budget under the current limit never lowers it.
	got, err := RaiseOpenFilesLimit(1)
	if err != nil {
		t.Fatalf("RaiseOpenFilesLimit(1) failed: %v", err)
	}
	if got != uint64(before.Cur) {
		t.Errorf("Expected limit to stay at %d, got %d", before.Cur, got)
	}

	// Asking for more than the hard limit settles on the hard limit.
	got, err = RaiseOpenFilesLimit(uint64(before.Max) + 1)
	if err != nil {
		t.Fatalf("RaiseOpenFilesLimit above hard limit failed: %v", err)
	}
	if before.Max != ^uint64(0) && got > uint64(before.Max) { // ^uint64(0) is RLIM_INFINITY
		t.Errorf("Limit %d exceeds hard limit %d", got, before.Max)
	}
	t.Cleanup(func() { syscall.Setrlimit(syscall.RLIMIT_NOFILE, &before) })
}
