package telegram

import (
	"errors"
	"strings"
	"testing"

	"github.com/21e8/telegram-batch-bot/internal/batcher"
	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

func TestFormatBatchEmpty(t *testing.T) {
	t.Parallel()
	if got := FormatBatch(nil); got != nil {
		t.Fatalf("FormatBatch(nil) = %v, want nil", got)
	}
}

func TestFormatBatchSingleChunk(t *testing.T) {
	t.Parallel()
	batch := []batcher.Message{
		{Topic: "default", Text: "service started", Level: batcher.LevelInfo},
		{Topic: "default", Text: "disk 90% full", Level: batcher.LevelWarning},
		{Topic: "default", Text: "sync failed", Level: batcher.LevelError, Err: errors.New("конец <tag>")},
	}
	chunks := FormatBatch(batch)
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	msg := chunks[0]

	if !strings.HasPrefix(msg, "<b>default</b> — 3 message(s)") {
		t.Fatalf("missing header: %q", msg)
	}
	for _, want := range []string{"ℹ️ service started", "⚠️ disk 90% full", "🚨 sync failed"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing line %q in %q", want, msg)
		}
	}
	// Attached errors are escaped and rendered as code.
	if !strings.Contains(msg, "<code>конец &lt;tag&gt;</code>") {
		t.Fatalf("error not escaped: %q", msg)
	}
	// FIFO order survives formatting.
	if strings.Index(msg, "service started") > strings.Index(msg, "disk 90%") {
		t.Fatal("message order not preserved")
	}
}

func TestFormatBatchEscapesText(t *testing.T) {
	t.Parallel()
	chunks := FormatBatch([]batcher.Message{
		{Topic: "a<b", Text: "x & <i>y</i>", Level: batcher.LevelInfo},
	})
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	if !strings.Contains(chunks[0], "<b>a&lt;b</b>") {
		t.Fatalf("topic not escaped: %q", chunks[0])
	}
	if !strings.Contains(chunks[0], "x &amp; &lt;i&gt;y&lt;/i&gt;") {
		t.Fatalf("text not escaped: %q", chunks[0])
	}
}

func TestFormatBatchSplitsLongBatches(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", 400)
	batch := make([]batcher.Message, 20)
	for i := range batch {
		batch[i] = batcher.Message{Topic: "bulk", Text: long, Level: batcher.LevelInfo}
	}
	chunks := FormatBatch(batch)
	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want >= 2", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > maxMessageLen {
			t.Fatalf("chunk %d is %d chars, limit %d", i, len(c), maxMessageLen)
		}
	}
}

func TestTruncateLineRuneSafe(t *testing.T) {
	t.Parallel()
	s := strings.Repeat("й", 100) // 2 bytes per rune
	got := truncateLine(s, 51)
	if len(got) > 51 {
		t.Fatalf("len = %d, want <= 51", len(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("missing ellipsis: %q", got)
	}
	// No broken rune before the ellipsis.
	if strings.ContainsRune(strings.TrimSuffix(got, "…"), '�') {
		t.Fatalf("broken rune in %q", got)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Token: "", ChatID: 1}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := New(Config{Token: "t", ChatID: 0}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty chat id")
	}
}
