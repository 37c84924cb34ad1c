// Package schedule runs cron-expression forced flushes on top of the
// batcher's own timer (e.g. a daily digest flush at quiet hours).
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

type Config struct {
	// Specs are cron expressions (standard 5-field, plus @-descriptors
	// like "@hourly" and "@every 30m").
	Specs []string
	// Timezone for the expressions; empty means local time.
	Timezone string
}

// Flusher is satisfied by the batcher service.
type Flusher interface {
	Flush(ctx context.Context)
}

// Service owns a cron runner whose only job is forcing flushes.
type Service struct {
	log logx.Logger
	c   *cron.Cron
}

// New parses every spec eagerly so a bad expression fails at startup, not
// at first fire.
func New(cfg Config, target Flusher, log logx.Logger) (*Service, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("schedule timezone: %w", err)
		}
		loc = l
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithLocation(loc))

	for _, spec := range cfg.Specs {
		spec := spec
		if _, err := parser.Parse(spec); err != nil {
			return nil, fmt.Errorf("schedule spec %q: %w", spec, err)
		}
		_, err := c.AddFunc(spec, func() {
			log.Debug("scheduled flush", logx.String("spec", spec))
			target.Flush(context.Background())
		})
		if err != nil {
			return nil, fmt.Errorf("schedule spec %q: %w", spec, err)
		}
	}

	return &Service{log: log.With(logx.String("comp", "schedule")), c: c}, nil
}

func (s *Service) Start() {
	s.c.Start()
	s.log.Debug("flush schedule started", logx.Int("specs", len(s.c.Entries())))
}

// Stop cancels future fires; a flush already running is left to finish.
func (s *Service) Stop() {
	ctx := s.c.Stop()
	<-ctx.Done()
}
