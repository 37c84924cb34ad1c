package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/21e8/telegram-batch-bot/internal/eventbus"
	"github.com/21e8/telegram-batch-bot/internal/storage"
	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

func TestRecorderPersistsDispatchEvents(t *testing.T) {
	t.Parallel()
	st, err := storage.Open(storage.Config{Driver: "file", Path: filepath.Join(t.TempDir(), "store")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		New(st, bus, logx.Nop()).Run(ctx)
		close(done)
	}()

	// Publishing races the recorder's subscription, so re-publish until
	// both outcomes have been persisted. Duplicates are fine for an
	// append-only audit trail.
	now := time.Now()
	deadline := time.After(2 * time.Second)
	for {
		bus.Publish(eventbus.Event{Type: eventbus.TypeDispatchOK, Data: eventbus.DispatchEvent{
			Topic: "default", Processor: "telegram", Count: 4, At: now,
		}})
		bus.Publish(eventbus.Event{Type: eventbus.TypeDispatchFailed, Data: eventbus.DispatchEvent{
			Topic: "alerts", Processor: "telegram", Count: 1, At: now, Error: "timeout",
		}})
		// Non-dispatch events are ignored.
		bus.Publish(eventbus.Event{Type: eventbus.TypeBatchFlushed, Data: eventbus.DispatchEvent{Topic: "default", Count: 4, At: now}})

		recent, err := st.RecentDeliveries(context.Background(), 100)
		if err != nil {
			t.Fatalf("RecentDeliveries: %v", err)
		}
		var okSeen, failSeen bool
		for _, e := range recent {
			switch e.Topic {
			case "default":
				if e.Processor == "telegram" && e.Count == 4 && e.Error == "" {
					okSeen = true
				}
			case "alerts":
				if e.Error == "timeout" {
					failSeen = true
				}
			}
		}
		if okSeen && failSeen {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("audit entries missing after %d records", len(recent))
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not stop")
	}
}

func TestRecorderNoStoreIsNoop(t *testing.T) {
	t.Parallel()
	// Must return immediately without a subscription.
	New(nil, eventbus.New(), logx.Nop()).Run(context.Background())
}
