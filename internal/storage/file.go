package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.deliveries.jsonl (append-only JSON Lines)
//
// RecentDeliveries serves from an in-memory ring of this process's appends;
// the JSONL file is the durable record for offline inspection.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	file *os.File

	recent []DeliveryEntry
}

const fileRecentCap = 500

type deliveryRecord struct {
	At        int64  `json:"at"` // unix milli
	Topic     string `json:"topic"`
	Processor string `json:"processor"`
	Count     int    `json:"count"`
	Sync      bool   `json:"sync,omitempty"`
	Error     string `json:"error,omitempty"`
	TookMS    int64  `json:"took_ms,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(prefix+".deliveries.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, file: f}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *fileStore) AppendDelivery(ctx context.Context, e DeliveryEntry) error {
	_ = ctx
	if e.At.IsZero() {
		e.At = time.Now()
	}
	r := deliveryRecord{
		At:        e.At.UnixMilli(),
		Topic:     e.Topic,
		Processor: e.Processor,
		Count:     e.Count,
		Sync:      e.Sync,
		Error:     e.Error,
		TookMS:    e.TookMS,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("delivery log closed")
	}
	if err := json.NewEncoder(s.file).Encode(r); err != nil {
		return err
	}
	s.recent = append(s.recent, e)
	if len(s.recent) > fileRecentCap {
		s.recent = s.recent[len(s.recent)-fileRecentCap:]
	}
	return nil
}

func (s *fileStore) RecentDeliveries(ctx context.Context, limit int) ([]DeliveryEntry, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.recent) {
		limit = len(s.recent)
	}
	out := make([]DeliveryEntry, limit)
	copy(out, s.recent[len(s.recent)-limit:])
	return out, nil
}
