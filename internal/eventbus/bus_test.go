package eventbus

import (
	"testing"
	"time"
)

func TestPublishReachesSubscribers(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(4)
	defer unsub()

	b.Publish(Event{Type: TypeDispatchOK, Data: DispatchEvent{Topic: "t", Count: 2}})

	select {
	case ev := <-ch:
		if ev.Type != TypeDispatchOK {
			t.Fatalf("Type = %s, want %s", ev.Type, TypeDispatchOK)
		}
		if ev.Time.IsZero() {
			t.Fatal("Publish did not stamp Time")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Event{Type: TypeBatchFlushed})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	if len(ch) != 1 {
		t.Fatalf("buffered events = %d, want 1", len(ch))
	}
}

func TestUnsubscribeIsIdempotentAndSafe(t *testing.T) {
	t.Parallel()
	b := New()
	_, unsub := b.Subscribe(1)
	unsub()
	unsub()
	// Publishing after unsubscribe must not panic.
	b.Publish(Event{Type: TypeBatcherDestroy})
}
