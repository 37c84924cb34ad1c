// Package telegram implements the Telegram batch processor.
//
// One batch becomes one chat message (split only when it exceeds Telegram's
// length limit). Sends are rate limited and retried with backoff before the
// processor reports failure; the batcher core itself never retries.
package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"golang.org/x/time/rate"

	"github.com/21e8/telegram-batch-bot/internal/batcher"
	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

type Config struct {
	Token    string
	ChatID   int64
	ThreadID int // telegram forum topic thread id (0 if none)

	RatePerSec int
	RetryMax   int
	RetryBase  time.Duration
}

type Processor struct {
	cfg     Config
	log     logx.Logger
	bot     *tele.Bot
	limiter *rate.Limiter
}

func New(cfg Config, log logx.Logger) (*Processor, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, err
	}
	return &Processor{
		cfg:     cfg,
		log:     log.With(logx.String("comp", "telegram")),
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}, nil
}

func (p *Processor) Name() string { return "telegram" }

// ProcessBatch formats the batch and sends it to the configured chat.
// The returned error covers the whole batch: any chunk that exhausts its
// retries fails the dispatch.
func (p *Processor) ProcessBatch(ctx context.Context, batch []batcher.Message) error {
	for _, chunk := range FormatBatch(batch) {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := p.sendWithRetry(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

// ProcessBatchSync is the synchronous dispatch entry point. Delivery is the
// same; only the calling convention differs.
func (p *Processor) ProcessBatchSync(batch []batcher.Message) error {
	return p.ProcessBatch(context.Background(), batch)
}

func (p *Processor) sendWithRetry(ctx context.Context, text string) error {
	to := &tele.Chat{ID: p.cfg.ChatID}
	opts := &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
		ThreadID:              p.cfg.ThreadID,
	}

	maxAttempts := 1 + p.cfg.RetryMax
	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := p.bot.Send(to, text, opts)
		if err == nil {
			return nil
		}
		last = err
		p.log.Debug("telegram send failed",
			logx.Err(err), logx.Int("attempt", attempt), logx.Int("max", maxAttempts))
		if attempt >= maxAttempts {
			break
		}

		delay := retryDelay(p.cfg.RetryBase, attempt)
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return ctx.Err()
		}
	}
	return last
}

// retryDelay is exponential: base * 2^(attempt-1), capped at 10s.
func retryDelay(base time.Duration, attempt int) time.Duration {
	const maxDelay = 10 * time.Second
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return d
}
