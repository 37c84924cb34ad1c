package batcher

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestQueueStoreDrainResets(t *testing.T) {
	t.Parallel()
	q := newQueueStore()
	for i := 0; i < 3; i++ {
		q.enqueue(Message{Topic: "t", Text: fmt.Sprintf("m%d", i)})
	}

	first := q.drain("t")
	if len(first) != 3 {
		t.Fatalf("first drain = %d messages, want 3", len(first))
	}
	if second := q.drain("t"); len(second) != 0 {
		t.Fatalf("second drain = %d messages, want 0", len(second))
	}
	if n := q.pending("t"); n != 0 {
		t.Fatalf("pending = %d, want 0", n)
	}
}

func TestQueueStoreTopicsOnlyNonEmpty(t *testing.T) {
	t.Parallel()
	q := newQueueStore()
	q.enqueue(Message{Topic: "a"})
	q.enqueue(Message{Topic: "b"})
	q.drain("a")

	got := q.topics()
	sort.Strings(got)
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("topics = %v, want [b]", got)
	}
}

func TestQueueStoreEnqueueReturnsCount(t *testing.T) {
	t.Parallel()
	q := newQueueStore()
	for want := 1; want <= 5; want++ {
		if n := q.enqueue(Message{Topic: "t"}); n != want {
			t.Fatalf("enqueue count = %d, want %d", n, want)
		}
	}
}

// Every message lands in exactly one drain even while producers race with
// the drainer.
func TestQueueStoreConcurrentDrainLosesNothing(t *testing.T) {
	t.Parallel()
	q := newQueueStore()

	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				q.enqueue(Message{Topic: "t", Text: fmt.Sprintf("%d/%d", i, j)})
			}
		}(i)
	}

	seen := map[string]bool{}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	collect := func() {
		for _, m := range q.drain("t") {
			if seen[m.Text] {
				t.Errorf("message %q drained twice", m.Text)
			}
			seen[m.Text] = true
		}
	}
	for {
		select {
		case <-done:
			collect()
			if len(seen) != producers*perProducer {
				t.Fatalf("drained %d unique messages, want %d", len(seen), producers*perProducer)
			}
			return
		default:
			collect()
		}
	}
}

func TestQueueStoreClear(t *testing.T) {
	t.Parallel()
	q := newQueueStore()
	q.enqueue(Message{Topic: "a"})
	q.enqueue(Message{Topic: "b"})
	q.clear()
	if got := q.topics(); len(got) != 0 {
		t.Fatalf("topics after clear = %v, want none", got)
	}
}
