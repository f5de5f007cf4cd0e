package reserve

import (
	"sync"
	"testing"
	"time"
)

func TestReservationFIFOOrder(t *testing.T) {
	r := New[string](1)
	defer r.Close()

	var mu sync.Mutex
	var order []string
	done := make(chan struct{})

	r.Request("a", func(k string) {
		mu.Lock()
		order = append(order, k)
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		r.Release(k)
	})
	time.Sleep(2 * time.Millisecond) // ensure "a" grabs the only slot first
	r.Request("b", func(k string) {
		mu.Lock()
		order = append(order, k)
		mu.Unlock()
		r.Release(k)
	})
	r.Request("c", func(k string) {
		mu.Lock()
		order = append(order, k)
		mu.Unlock()
		r.Release(k)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reservations to drain")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("expected FIFO order [a b c], got %v", order)
	}
}

func TestCancelQueuedNeverFires(t *testing.T) {
	r := New[string](1)
	defer r.Close()

	blocker := make(chan struct{})
	r.Request("a", func(k string) {
		<-blocker
		r.Release(k)
	})

	time.Sleep(2 * time.Millisecond)
	fired := false
	r.Request("b", func(k string) { fired = true })
	r.Cancel("b")

	close(blocker)
	time.Sleep(10 * time.Millisecond)
	if fired {
		t.Fatal("canceled queued reservation fired its callback")
	}
}

func TestCancelRunningPromotesNext(t *testing.T) {
	r := New[string](1)
	defer r.Close()

	started := make(chan struct{})
	r.Request("a", func(k string) { close(started) })
	<-started

	done := make(chan struct{})
	r.Request("b", func(k string) {
		close(done)
		r.Release(k)
	})

	r.Cancel("a")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("canceling running reservation did not promote the next queued key")
	}
}

func TestMaxRunningRespected(t *testing.T) {
	r := New[int](2)
	defer r.Close()

	var mu sync.Mutex
	concurrent := 0
	maxSeen := 0
	var wg sync.WaitGroup

	for i := 0; i < 6; i++ {
		wg.Add(1)
		r.Request(i, func(k int) {
			mu.Lock()
			concurrent++
			if concurrent > maxSeen {
				maxSeen = concurrent
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			concurrent--
			mu.Unlock()
			r.Release(k)
			wg.Done()
		})
	}

	wg.Wait()
	if maxSeen > 2 {
		t.Fatalf("expected at most 2 concurrent reservations, saw %d", maxSeen)
	}
}
