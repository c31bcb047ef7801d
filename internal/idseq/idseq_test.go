package idseq

import (
	"sort"
	"sync"
	"testing"
)

func TestNextIsStrictlyIncreasing(t *testing.T) {
	g := NewAt(50)
	prev := int64(50)
	for i := 0; i < 100; i++ {
		id := g.Next()
		if id <= prev {
			t.Fatalf("id %d not above previous %d", id, prev)
		}
		prev = id
	}
}

func TestObserveRaisesFloor(t *testing.T) {
	g := NewAt(10)
	g.Observe(500)
	if id := g.Next(); id != 501 {
		t.Fatalf("expected next id 501 after observing 500, got %d", id)
	}

	// A lower observation must not rewind the sequence.
	g.Observe(200)
	if id := g.Next(); id != 502 {
		t.Fatalf("expected next id 502, got %d", id)
	}
}

func TestConcurrentNextNeverRepeats(t *testing.T) {
	g := NewAt(0)

	const workers = 8
	const perWorker = 1000

	var mu sync.Mutex
	seen := make([]int64, 0, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, g.Next())
			}
			mu.Lock()
			seen = append(seen, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	for i := 1; i < len(seen); i++ {
		if seen[i] == seen[i-1] {
			t.Fatalf("duplicate id %d handed out", seen[i])
		}
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d ids, got %d", workers*perWorker, len(seen))
	}
}
