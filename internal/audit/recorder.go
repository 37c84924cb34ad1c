// Package audit persists dispatch outcomes published on the event bus.
package audit

import (
	"context"
	"time"

	"github.com/21e8/telegram-batch-bot/internal/eventbus"
	"github.com/21e8/telegram-batch-bot/internal/storage"
	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

// Recorder subscribes to batch dispatch events and appends them to the
// store, best-effort. A write failure is logged and never affects the
// batcher.
type Recorder struct {
	store storage.Store
	bus   eventbus.Bus
	log   logx.Logger
}

func New(store storage.Store, bus eventbus.Bus, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{store: store, bus: bus, log: log}
}

// Run subscribes and records until ctx is done. It is a no-op when storage
// is disabled.
func (r *Recorder) Run(ctx context.Context) {
	if r.store == nil || r.bus == nil {
		return
	}
	events, unsub := r.bus.Subscribe(64)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.record(ctx, ev)
		}
	}
}

func (r *Recorder) record(ctx context.Context, ev eventbus.Event) {
	switch ev.Type {
	case eventbus.TypeDispatchOK, eventbus.TypeDispatchFailed:
	default:
		return
	}
	de, ok := ev.Data.(eventbus.DispatchEvent)
	if !ok {
		return
	}

	wctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	err := r.store.AppendDelivery(wctx, storage.DeliveryEntry{
		At:        de.At,
		Topic:     de.Topic,
		Processor: de.Processor,
		Count:     de.Count,
		Sync:      de.Sync,
		Error:     de.Error,
	})
	cancel()
	if err != nil {
		r.log.Debug("delivery audit write failed", logx.Err(err))
	}
}
