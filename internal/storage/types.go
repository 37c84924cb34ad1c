package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSON Lines backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// DeliveryEntry records one dispatch outcome (one processor, one batch).
// Keep it compact and schema-stable. This is an audit trail of deliveries,
// not queue persistence: pending messages are never stored.
type DeliveryEntry struct {
	At        time.Time
	Topic     string
	Processor string
	Count     int
	Sync      bool
	Error     string
	TookMS    int64
}
