// Package logsink implements a processor that writes batches to the logger.
// It is the default sink when no chat transport is configured.
package logsink

import (
	"context"

	"github.com/21e8/telegram-batch-bot/internal/batcher"
	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

type Processor struct {
	name string
	log  logx.Logger
}

// New returns a log-backed processor. name defaults to "logsink".
func New(name string, log logx.Logger) *Processor {
	if name == "" {
		name = "logsink"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Processor{name: name, log: log.With(logx.String("comp", name))}
}

func (p *Processor) Name() string { return p.name }

func (p *Processor) ProcessBatch(ctx context.Context, batch []batcher.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.write(batch)
}

func (p *Processor) ProcessBatchSync(batch []batcher.Message) error {
	return p.write(batch)
}

func (p *Processor) write(batch []batcher.Message) error {
	for _, m := range batch {
		fields := []logx.Field{
			logx.String("topic", m.Topic),
			logx.Time("queued_at", m.At),
		}
		switch m.Level {
		case batcher.LevelError:
			fields = append(fields, logx.Err(m.Err))
			p.log.Error(m.Text, fields...)
		case batcher.LevelWarning:
			p.log.Warn(m.Text, fields...)
		default:
			p.log.Info(m.Text, fields...)
		}
	}
	return nil
}
