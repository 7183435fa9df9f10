package queue

import (
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[int](4)

	for i := 0; i < 3; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) returned false", i)
		}
	}
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}

	for i := 0; i < 3; i++ {
		v, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop() returned false for item %d", i)
		}
		if v != i {
			t.Errorf("Pop() = %d, want %d", v, i)
		}
	}

	if got := q.Drain(1); got != nil {
		t.Errorf("Drain(1) on empty queue = %v, want nil", got)
	}
}

func TestQueue_GrowsWhenFull(t *testing.T) {
	q := New[int](2)

	for i := 0; i < 5; i++ {
		q.Push(i)
	}

	stats := q.Stats()
	if stats.Capacity != 8 {
		t.Errorf("Capacity = %d, want 8", stats.Capacity)
	}
	if stats.Resizes != 2 {
		t.Errorf("Resizes = %d, want 2", stats.Resizes)
	}
	if stats.Peak != 5 {
		t.Errorf("Peak = %d, want 5", stats.Peak)
	}

	for i := 0; i < 5; i++ {
		if v, _ := q.Pop(); v != i {
			t.Errorf("Pop() = %d, want %d", v, i)
		}
	}
}

func TestQueue_GrowAfterWrap(t *testing.T) {
	q := New[int](4)

	// Advance head so the ring wraps before growing.
	for i := 0; i < 3; i++ {
		q.Push(-1)
	}
	q.Drain(0)

	for i := 0; i < 6; i++ {
		q.Push(i)
	}
	for i := 0; i < 6; i++ {
		if v, _ := q.Pop(); v != i {
			t.Fatalf("Pop() = %d, want %d", v, i)
		}
	}
}

func TestQueue_Drain(t *testing.T) {
	q := New[int](4)
	for i := 0; i < 5; i++ {
		q.Push(i)
	}

	first := q.Drain(2)
	if len(first) != 2 || first[0] != 0 || first[1] != 1 {
		t.Errorf("Drain(2) = %v, want [0 1]", first)
	}

	rest := q.Drain(0)
	if len(rest) != 3 || rest[0] != 2 || rest[2] != 4 {
		t.Errorf("Drain(0) = %v, want [2 3 4]", rest)
	}

	if got := q.Drain(0); got != nil {
		t.Errorf("Drain on empty queue = %v, want nil", got)
	}

	stats := q.Stats()
	if stats.Pushed != 5 || stats.Popped != 5 {
		t.Errorf("Pushed/Popped = %d/%d, want 5/5", stats.Pushed, stats.Popped)
	}
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := New[string](1)

	got := make(chan string, 1)
	go func() {
		v, _ := q.Pop()
		got <- v
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push("hello")

	select {
	case v := <-got:
		if v != "hello" {
			t.Errorf("Pop() = %q, want %q", v, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not wake after Push")
	}
}

func TestQueue_Close(t *testing.T) {
	q := New[int](1)
	q.Push(1)
	q.Close()

	if q.Push(2) {
		t.Error("Push after Close returned true")
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop after Close returned true")
	}
	if left := q.Drain(0); len(left) != 1 || left[0] != 1 {
		t.Errorf("Drain after Close = %v, want [1]", left)
	}
}

func TestQueue_CloseWakesWaiters(t *testing.T) {
	q := New[int](1)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Pop()
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not wake blocked Pop calls")
	}
}

func TestQueue_ConcurrentPushPop(t *testing.T) {
	q := New[int](2)
	const producers, perProducer = 4, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(i)
			}
		}()
	}

	received := 0
	done := make(chan struct{})
	go func() {
		for received < producers*perProducer {
			if _, ok := q.Pop(); ok {
				received++
			}
		}
		close(done)
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not receive every item")
	}
}
