package capture

import (
	"sync"
	"testing"
)

func TestSerialQueueRunsReentrantPostsInOrder(t *testing.T) {
	var q serialQueue
	var order []int

	q.post(func() {
		order = append(order, 1)
		q.post(func() {
			order = append(order, 3)
		})
		order = append(order, 2)
	})

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestSerialQueueNeverRunsConcurrently(t *testing.T) {
	var q serialQueue
	var mu sync.Mutex
	active, maxActive, total := 0, 0, 0

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				q.post(func() {
					mu.Lock()
					active++
					if active > maxActive {
						maxActive = active
					}
					mu.Unlock()

					mu.Lock()
					active--
					total++
					mu.Unlock()
				})
			}
		}()
	}
	wg.Wait()

	// A post may return while another goroutine still drains; draining
	// finishes before that goroutine's post returns.
	if total != 1600 {
		t.Errorf("ran %d functions, want 1600", total)
	}
	if maxActive != 1 {
		t.Errorf("max concurrent handlers = %d, want 1", maxActive)
	}
}

func TestSerialQueueClosed(t *testing.T) {
	var q serialQueue
	q.close()

	ran := false
	if q.post(func() { ran = true }) {
		t.Error("post after close should report false")
	}
	if ran {
		t.Error("function ran after close")
	}
}
