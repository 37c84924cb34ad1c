package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = (%v, %v), want (nil, nil)", driver, st, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileStoreAppendAndRecent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "store")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	entries := []DeliveryEntry{
		{Topic: "default", Processor: "telegram", Count: 3},
		{Topic: "alerts", Processor: "telegram", Count: 1, Error: "bad gateway"},
		{Topic: "alerts", Processor: "logsink", Count: 1, Sync: true},
	}
	for _, e := range entries {
		if err := st.AppendDelivery(ctx, e); err != nil {
			t.Fatalf("AppendDelivery: %v", err)
		}
	}

	recent, err := st.RecentDeliveries(ctx, 2)
	if err != nil {
		t.Fatalf("RecentDeliveries: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d entries, want 2", len(recent))
	}
	if recent[1].Processor != "logsink" || !recent[1].Sync {
		t.Fatalf("unexpected last entry: %+v", recent[1])
	}

	// The JSONL file carries one record per append.
	f, err := os.Open(filepath.Join(dir, "store.deliveries.jsonl"))
	if err != nil {
		t.Fatalf("open jsonl: %v", err)
	}
	defer f.Close()
	var lines int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r deliveryRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("line %d: %v", lines+1, err)
		}
		lines++
	}
	if lines != len(entries) {
		t.Fatalf("jsonl lines = %d, want %d", lines, len(entries))
	}
}

func TestFileStoreClosedAppendFails(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "store")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := st.AppendDelivery(context.Background(), DeliveryEntry{At: time.Now()}); err == nil {
		t.Fatal("append after close should fail")
	}
}
