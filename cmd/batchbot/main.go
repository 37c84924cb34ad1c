package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/21e8/telegram-batch-bot/internal/audit"
	"github.com/21e8/telegram-batch-bot/internal/batcher"
	"github.com/21e8/telegram-batch-bot/internal/config"
	"github.com/21e8/telegram-batch-bot/internal/eventbus"
	"github.com/21e8/telegram-batch-bot/internal/processor/logsink"
	"github.com/21e8/telegram-batch-bot/internal/processor/telegram"
	"github.com/21e8/telegram-batch-bot/internal/schedule"
	"github.com/21e8/telegram-batch-bot/internal/storage"
	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.json", "path to config file (json or yaml)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	mgr := config.NewManager(cfgPath)
	mgr.SetValidator(config.Validate)
	cfg, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(ctx, cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})
	defer logSvc.Close()
	mgr.SetLogger(log)

	bus := eventbus.New()

	var store storage.Store
	if cfg.Storage != nil {
		busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
		if err != nil {
			return err
		}
		store, err = storage.Open(storage.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busyTimeout,
		}, log)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		if store != nil {
			defer store.Close()
		}
	}

	procs, err := buildProcessors(cfg, log)
	if err != nil {
		return err
	}

	maxWait, err := cfg.Batcher.MaxWaitDuration()
	if err != nil {
		return err
	}
	b, err := batcher.New(batcher.Config{
		MaxBatchSize:         cfg.Batcher.MaxBatchSize,
		MaxWait:              maxWait,
		ConcurrentProcessors: cfg.Batcher.ConcurrentProcessors,
		DefaultTopic:         cfg.Batcher.DefaultTopic,
	}, procs, log, bus)
	if err != nil {
		return err
	}

	if store != nil {
		go audit.New(store, bus, log).Run(ctx)
	}

	if cfg.Schedule != nil && cfg.Schedule.Enabled {
		sched, err := schedule.New(schedule.Config{
			Specs:    cfg.Schedule.Specs,
			Timezone: cfg.Schedule.Timezone,
		}, b, log)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// Hot reload: logging applies live; batcher settings need a restart.
	go func() { _ = mgr.Watch(ctx) }()
	updates := mgr.Subscribe(1)
	defer mgr.Unsubscribe(updates)
	go func() {
		for next := range updates {
			if next == nil {
				continue
			}
			logSvc.Apply(logx.Config{
				Level:   next.Logging.Level,
				Console: next.Logging.Console,
				File:    logx.FileConfig{Enabled: next.Logging.File.Enabled, Path: next.Logging.File.Path},
			})
			if next.Batcher != cfg.Batcher {
				log.Warn("batcher config changed; restart required to apply")
			}
			bus.Publish(eventbus.Event{Type: eventbus.TypeConfigReloaded, Time: time.Now()})
		}
	}()

	log.Info("batchbot started",
		logx.Int("processors", len(procs)),
		logx.Int("max_batch_size", cfg.Batcher.MaxBatchSize),
		logx.Duration("max_wait", maxWait))

	go readStdin(ctx, b, log)

	<-ctx.Done()

	// Deliver what we can before discarding state.
	b.FlushSync()
	b.Destroy()
	log.Info("batchbot stopped")
	return nil
}

func buildProcessors(cfg *config.Config, log logx.Logger) ([]batcher.Processor, error) {
	if !cfg.Telegram.Enabled {
		log.Warn("telegram disabled; batches go to the log sink")
		return []batcher.Processor{logsink.New("", log)}, nil
	}

	retryBase, err := config.ParseDurationField("telegram.retry_base", cfg.Telegram.RetryBase)
	if err != nil {
		return nil, err
	}
	tg, err := telegram.New(telegram.Config{
		Token:      cfg.Telegram.Token,
		ChatID:     cfg.Telegram.ChatID,
		ThreadID:   cfg.Telegram.ThreadID,
		RatePerSec: cfg.Telegram.RatePerSec,
		RetryMax:   cfg.Telegram.RetryMax,
		RetryBase:  retryBase,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("telegram processor: %w", err)
	}
	return []batcher.Processor{tg}, nil
}

// readStdin turns stdin lines into queued messages, one per line:
//
//	error|alerts|sync failed
//	warning|disk almost full
//	plain text (queued as info to the default topic)
func readStdin(ctx context.Context, b *batcher.Service, log logx.Logger) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		topic, text, level := parseLine(sc.Text())
		if text == "" {
			continue
		}
		if err := b.QueueMessage(topic, text, level, nil); err != nil {
			log.Warn("enqueue failed", logx.Err(err))
			return
		}
	}
}
