package schedule

import (
	"context"
	"testing"
	"time"

	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

type flushRecorder struct {
	fired chan struct{}
}

func TestNewRejectsBadSpec(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Specs: []string{"not a cron"}}, nil, logx.Nop()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewRejectsBadTimezone(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Specs: []string{"* * * * *"}, Timezone: "Mars/Olympus"}, nil, logx.Nop()); err == nil {
		t.Fatal("expected timezone error")
	}
}

func (f *flushRecorder) Flush(context.Context) {
	select {
	case f.fired <- struct{}{}:
	default:
	}
}

func TestScheduledFlushFires(t *testing.T) {
	t.Parallel()
	f := &flushRecorder{fired: make(chan struct{}, 4)}
	s, err := New(Config{Specs: []string{"@every 50ms"}}, f, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	defer s.Stop()

	select {
	case <-f.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled flush never fired")
	}
}
