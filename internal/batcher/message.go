package batcher

import "time"

// Level classifies a queued message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is one notification event. It is immutable once constructed;
// processors receive a shared batch snapshot and must not modify it.
type Message struct {
	Topic string
	Text  string
	Level Level

	// Err carries the failure associated with an error-level message.
	// It is informational only and never affects delivery of the batch.
	Err error

	At time.Time
}
