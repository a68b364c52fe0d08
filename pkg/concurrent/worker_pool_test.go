package concurrent

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestMapPreservesOrder(t *testing.T) {
	testCases := []struct {
		name       string
		numWorkers int
		n          int
	}{
		{name: "single worker", numWorkers: 1, n: 20},
		{name: "more workers than jobs", numWorkers: 50, n: 7},
		{name: "ten workers", numWorkers: 10, n: 200},
		{name: "no jobs", numWorkers: 4, n: 0},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			jobs := make([]int, tt.n)
			for i := range jobs {
				jobs[i] = i
			}
			got := Map(tt.numWorkers, jobs, func(j int) int {
				// later jobs finish first
				time.Sleep(time.Duration(tt.n-j) * 10 * time.Microsecond)
				return j * j
			})
			if len(got) != tt.n {
				t.Fatalf("len = %d, want %d", len(got), tt.n)
			}
			for i, v := range got {
				if v != i*i {
					t.Errorf("got[%d] = %d, want %d", i, v, i*i)
				}
			}
		})
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	var (
		inFlight, peak int32
	)
	jobs := make([]int, 64)
	Map(3, jobs, func(int) struct{} {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		time.Sleep(200 * time.Microsecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}
	})
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}
