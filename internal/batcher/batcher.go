package batcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/21e8/telegram-batch-bot/internal/eventbus"
	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

const DefaultTopic = "default"

// Config controls one batcher instance. It is fixed at construction;
// changing it means building a new Service.
type Config struct {
	// MaxBatchSize triggers an immediate flush of a topic once its pending
	// count reaches this value. Must be > 0.
	MaxBatchSize int

	// MaxWait is the period of the background flush timer. Every tick
	// flushes all topics with pending messages. Must be > 0.
	MaxWait time.Duration

	// ConcurrentProcessors bounds how many processors receive a batch at
	// the same time during async dispatch. 0 means unlimited.
	ConcurrentProcessors int

	// DefaultTopic receives messages enqueued through Info/Warning/Error
	// and QueueMessage calls with an empty topic. Empty means "default".
	DefaultTopic string
}

func (c *Config) validate() error {
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("batcher: max batch size must be > 0 (got %d)", c.MaxBatchSize)
	}
	if c.MaxWait <= 0 {
		return fmt.Errorf("batcher: max wait must be > 0 (got %s)", c.MaxWait)
	}
	if c.ConcurrentProcessors < 0 {
		return fmt.Errorf("batcher: concurrent processors must be >= 0 (got %d)", c.ConcurrentProcessors)
	}
	if c.DefaultTopic == "" {
		c.DefaultTopic = DefaultTopic
	}
	return nil
}

// Service batches queued messages per topic and fans each drained batch out
// to every registered processor. Delivery is at-most-once: processor
// failures are reported (log + bus) and never retried by the core.
//
// It is safe for concurrent use.
type Service struct {
	cfg Config
	log logx.Logger
	bus eventbus.Bus

	queues *queueStore

	// pmu guards the registration sets. base is fixed at construction;
	// extra is mutated by Add/RemoveExtraProcessor.
	pmu   sync.Mutex
	base  []Processor
	extra []Processor

	sem chan struct{} // nil when dispatch concurrency is unlimited

	done     chan struct{}
	stopOnce sync.Once
	tickerWG sync.WaitGroup
}

// New validates cfg, registers the base processor set and starts the
// periodic flush timer. The returned Service is running until Destroy.
func New(cfg Config, processors []Processor, log logx.Logger, bus eventbus.Bus) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	s := &Service{
		cfg:    cfg,
		log:    log,
		bus:    bus,
		queues: newQueueStore(),
		base:   append([]Processor(nil), processors...),
		done:   make(chan struct{}),
	}
	seen := map[string]bool{}
	for _, p := range s.base {
		if p == nil || p.Name() == "" {
			return nil, fmt.Errorf("batcher: base processor with empty name")
		}
		if seen[p.Name()] {
			return nil, fmt.Errorf("batcher: duplicate base processor %q", p.Name())
		}
		seen[p.Name()] = true
	}
	if cfg.ConcurrentProcessors > 0 {
		s.sem = make(chan struct{}, cfg.ConcurrentProcessors)
	}

	s.tickerWG.Add(1)
	go s.run()
	return s, nil
}

// run drives the time trigger. Each tick flushes every non-empty topic and
// waits for all dispatches to settle before the next tick is observed;
// ticks arriving meanwhile coalesce (time.Ticker drops them).
func (s *Service) run() {
	defer s.tickerWG.Done()
	t := time.NewTicker(s.cfg.MaxWait)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			s.flushAll(context.Background())
		}
	}
}

func (s *Service) destroyed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// QueueMessage enqueues one message and applies the size trigger. The
// triggered flush runs concurrently; the caller never waits on dispatch.
// After Destroy it returns ErrStopped.
func (s *Service) QueueMessage(topic, text string, level Level, err error) error {
	if s.destroyed() {
		return ErrStopped
	}
	if topic == "" {
		topic = s.cfg.DefaultTopic
	}
	m := Message{Topic: topic, Text: text, Level: level, Err: err, At: time.Now()}
	n := s.queues.enqueue(m)
	if n >= s.cfg.MaxBatchSize {
		go s.flushTopic(context.Background(), topic, false)
	}
	return nil
}

// Info enqueues an info message to the default topic.
func (s *Service) Info(text string) error {
	return s.QueueMessage("", text, LevelInfo, nil)
}

// Warning enqueues a warning message to the default topic.
func (s *Service) Warning(text string) error {
	return s.QueueMessage("", text, LevelWarning, nil)
}

// Error enqueues an error message to the default topic. err is attached to
// the message as informational metadata.
func (s *Service) Error(text string, err error) error {
	return s.QueueMessage("", text, LevelError, err)
}

// Flush drains every non-empty topic and dispatches the batches to all
// registered processors on the async path. It returns once every dispatch
// has settled. Processor failures are reported, not returned.
func (s *Service) Flush(ctx context.Context) {
	s.flushAll(ctx)
}

func (s *Service) flushAll(ctx context.Context) {
	topics := s.queues.topics()
	if len(topics) == 0 {
		return
	}
	var wg sync.WaitGroup
	for _, topic := range topics {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			s.flushTopic(ctx, topic, false)
		}(topic)
	}
	wg.Wait()
}

// FlushSync drains every non-empty topic and dispatches each batch to the
// processors in registration order on the sync path. Processors without
// ProcessBatchSync are served through ProcessBatch instead; the reverse
// fallback does not exist (see dispatchSyncOne).
func (s *Service) FlushSync() {
	for _, topic := range s.queues.topics() {
		s.flushTopic(context.Background(), topic, true)
	}
}

func (s *Service) flushTopic(ctx context.Context, topic string, syncMode bool) {
	batch := s.queues.drain(topic)
	if len(batch) == 0 {
		// Size trigger and timer can race to drain the same topic; the
		// loser sees an empty batch and must not contact processors.
		return
	}
	if syncMode {
		s.dispatchSync(topic, batch)
	} else {
		s.dispatch(ctx, topic, batch)
	}
	s.publish(eventbus.TypeBatchFlushed, eventbus.DispatchEvent{Topic: topic, Count: len(batch), Sync: syncMode, At: time.Now()})
}

// dispatch fans the batch out to every processor concurrently and waits for
// all of them to settle. One processor's failure never delays or cancels a
// sibling.
func (s *Service) dispatch(ctx context.Context, topic string, batch []Message) {
	procs := s.processors()
	var wg sync.WaitGroup
	for _, p := range procs {
		wg.Add(1)
		go func(p Processor) {
			defer wg.Done()
			if s.sem != nil {
				s.sem <- struct{}{}
				defer func() { <-s.sem }()
			}
			s.report(topic, p.Name(), len(batch), false, s.callBatch(ctx, p, batch))
		}(p)
	}
	wg.Wait()
}

func (s *Service) dispatchSync(topic string, batch []Message) {
	for _, p := range s.processors() {
		s.report(topic, p.Name(), len(batch), true, s.dispatchSyncOne(p, batch))
	}
}

// callBatch runs the async batch operation, turning a missing capability or
// a panic into a per-processor error.
func (s *Service) callBatch(ctx context.Context, p Processor, batch []Message) (err error) {
	bp, ok := p.(BatchProcessor)
	if !ok {
		return ErrNoBatchCapability
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return bp.ProcessBatch(ctx, batch)
}

// dispatchSyncOne prefers ProcessBatchSync and falls back to waiting on
// ProcessBatch. A processor with neither fails with ErrNoBatchCapability.
func (s *Service) dispatchSyncOne(p Processor, batch []Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	if sp, ok := p.(SyncBatchProcessor); ok {
		return sp.ProcessBatchSync(batch)
	}
	if bp, ok := p.(BatchProcessor); ok {
		return bp.ProcessBatch(context.Background(), batch)
	}
	return ErrNoBatchCapability
}

func (s *Service) report(topic, proc string, count int, syncMode bool, err error) {
	ev := eventbus.DispatchEvent{Topic: topic, Processor: proc, Count: count, Sync: syncMode, At: time.Now()}
	if err != nil {
		ev.Error = err.Error()
		s.log.Warn("batch dispatch failed",
			logx.String("processor", proc),
			logx.String("topic", topic),
			logx.Int("count", count),
			logx.Bool("sync", syncMode),
			logx.Err(err))
		s.publish(eventbus.TypeDispatchFailed, ev)
		return
	}
	s.log.Debug("batch dispatched",
		logx.String("processor", proc),
		logx.String("topic", topic),
		logx.Int("count", count),
		logx.Bool("sync", syncMode))
	s.publish(eventbus.TypeDispatchOK, ev)
}

func (s *Service) publish(typ string, data eventbus.DispatchEvent) {
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: typ, Time: data.At, Data: data})
	}
}

// processors snapshots the registration set (base first, then extras in
// registration order).
func (s *Service) processors() []Processor {
	s.pmu.Lock()
	out := make([]Processor, 0, len(s.base)+len(s.extra))
	out = append(out, s.base...)
	out = append(out, s.extra...)
	s.pmu.Unlock()
	return out
}

// AddExtraProcessor registers p in the dynamic set. Names must be unique
// across the base and extra sets.
func (s *Service) AddExtraProcessor(p Processor) error {
	if p == nil || p.Name() == "" {
		return fmt.Errorf("batcher: processor with empty name")
	}
	s.pmu.Lock()
	defer s.pmu.Unlock()
	for _, q := range s.base {
		if q.Name() == p.Name() {
			return fmt.Errorf("%q: %w", p.Name(), ErrDuplicateProcessor)
		}
	}
	for _, q := range s.extra {
		if q.Name() == p.Name() {
			return fmt.Errorf("%q: %w", p.Name(), ErrDuplicateProcessor)
		}
	}
	s.extra = append(s.extra, p)
	s.publish(eventbus.TypeProcessorAdded, eventbus.DispatchEvent{Processor: p.Name(), At: time.Now()})
	return nil
}

// RemoveExtraProcessor removes the extra processor with the given name.
// Unknown names leave the set unchanged and return ErrUnknownProcessor;
// the base set supplied at construction is never removable.
func (s *Service) RemoveExtraProcessor(name string) error {
	s.pmu.Lock()
	for i, q := range s.extra {
		if q.Name() == name {
			s.extra = append(s.extra[:i], s.extra[i+1:]...)
			s.pmu.Unlock()
			s.publish(eventbus.TypeProcessorGone, eventbus.DispatchEvent{Processor: name, At: time.Now()})
			return nil
		}
	}
	s.pmu.Unlock()
	return fmt.Errorf("%q: %w", name, ErrUnknownProcessor)
}

// Pending reports the number of messages waiting in a topic.
func (s *Service) Pending(topic string) int {
	if topic == "" {
		topic = s.cfg.DefaultTopic
	}
	return s.queues.pending(topic)
}

// Destroy stops the flush timer and discards all queued, undelivered
// messages without dispatching them. It is terminal and idempotent.
// Dispatches already in flight are left to settle on their own.
func (s *Service) Destroy() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.tickerWG.Wait()
		s.queues.clear()
		s.log.Debug("batcher destroyed")
		s.publish(eventbus.TypeBatcherDestroy, eventbus.DispatchEvent{At: time.Now()})
	})
}
