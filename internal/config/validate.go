package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Validate checks cross-field constraints that the strict decoder can't.
// It is installed as the Manager's validator and run before first use.
func Validate(_ context.Context, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Batcher.MaxBatchSize <= 0 {
		return fmt.Errorf("batcher.max_batch_size: must be > 0 (got %d)", cfg.Batcher.MaxBatchSize)
	}
	d, err := ParseDurationField("batcher.max_wait", cfg.Batcher.MaxWait)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("batcher.max_wait: must be > 0")
	}
	if cfg.Batcher.ConcurrentProcessors < 0 {
		return fmt.Errorf("batcher.concurrent_processors: must be >= 0")
	}
	if cfg.Telegram.Enabled {
		if strings.TrimSpace(cfg.Telegram.Token) == "" {
			return fmt.Errorf("telegram.token: required when telegram is enabled")
		}
		if cfg.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id: required when telegram is enabled")
		}
		if _, err := ParseDurationField("telegram.retry_base", cfg.Telegram.RetryBase); err != nil {
			return err
		}
	}
	if cfg.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	if cfg.Schedule != nil && cfg.Schedule.Enabled && len(cfg.Schedule.Specs) == 0 {
		return fmt.Errorf("schedule.specs: at least one cron spec required when schedule is enabled")
	}
	return nil
}

// MaxWaitDuration returns the parsed batcher flush period.
func (c BatcherConfig) MaxWaitDuration() (time.Duration, error) {
	return ParseDurationField("batcher.max_wait", c.MaxWait)
}
