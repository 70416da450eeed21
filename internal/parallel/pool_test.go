package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestNewDefaultsToNumCPU(t *testing.T) {
	if got := New(0).Workers(); got != runtime.NumCPU() {
		t.Errorf("Workers() = %d, want %d", got, runtime.NumCPU())
	}
	if got := New(3).Workers(); got != 3 {
		t.Errorf("Workers() = %d, want 3", got)
	}
}

func TestForCoversRangeOnce(t *testing.T) {
	tests := []struct {
		name     string
		workers  int
		n        int
		minChunk int
	}{
		{"serial", 1, 100, 1},
		{"small n", 8, 5, 10},
		{"uneven", 4, 103, 7},
		{"many workers", 16, 1000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]int32, tt.n)
			New(tt.workers).For(tt.n, tt.minChunk, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
		})
	}
}

func TestForEmpty(t *testing.T) {
	called := false
	New(4).For(0, 1, func(start, end int) { called = true })
	if called {
		t.Error("fn called for empty range")
	}
}

func TestEachRunsEveryItem(t *testing.T) {
	var sum int64
	New(4).Each(100, func(i int) {
		atomic.AddInt64(&sum, int64(i))
	})
	if sum != 4950 {
		t.Errorf("sum = %d, want 4950", sum)
	}
}

func TestEachSerialOrder(t *testing.T) {
	var order []int
	New(1).Each(5, func(i int) {
		order = append(order, i)
	})
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
}

func TestEachRespectsLimit(t *testing.T) {
	var inFlight, peak int32
	New(2).Each(50, func(i int) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		runtime.Gosched()
		atomic.AddInt32(&inFlight, -1)
	})
	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds limit 2", peak)
	}
}
