package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Batcher settings are fixed for the lifetime of a batcher instance.
	// A change here is reported on reload, but takes effect on restart.
	Batcher BatcherConfig `json:"batcher"`

	Storage  *StorageConfig  `json:"storage,omitempty"`
	Schedule *ScheduleConfig `json:"schedule,omitempty"`
}

// BatcherConfig controls the batching core.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type BatcherConfig struct {
	// MaxBatchSize triggers an immediate flush once a topic holds this
	// many pending messages. Required, > 0.
	MaxBatchSize int `json:"max_batch_size"`

	// MaxWait is the period of the background flush timer. Required, > 0.
	MaxWait string `json:"max_wait"`

	// ConcurrentProcessors is an advisory cap on how many processors
	// receive a batch at once. 0 (or omitted) means unlimited.
	ConcurrentProcessors int `json:"concurrent_processors,omitempty"`

	// DefaultTopic receives info/warning/error convenience messages.
	DefaultTopic string `json:"default_topic,omitempty"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  int64  `json:"chat_id"`
	// ThreadID targets a forum topic thread (0 if none).
	ThreadID int `json:"thread_id,omitempty"`

	RatePerSec int `json:"rate_per_sec,omitempty"`
	RetryMax   int `json:"retry_max,omitempty"`
	// RetryBase is a Go duration string; first retry delay.
	RetryBase string `json:"retry_base,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the optional delivery-audit persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./batchbot_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// ScheduleConfig adds cron-expression forced flushes on top of the
// batcher's own timer (e.g. a daily digest at quiet hours).
type ScheduleConfig struct {
	Enabled bool `json:"enabled"`
	// Specs are standard 5-field cron expressions.
	Specs []string `json:"specs"`
	// Timezone for the cron expressions; empty means local time.
	Timezone string `json:"timezone,omitempty"`
}
