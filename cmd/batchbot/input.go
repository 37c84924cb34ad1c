package main

import (
	"strings"

	"github.com/21e8/telegram-batch-bot/internal/batcher"
)

// parseLine splits an input line into (topic, text, level).
//
// Forms, pipe-separated:
//
//	text                     -> info, default topic
//	level|text               -> default topic
//	level|topic|text
//
// An unknown level falls back to treating the whole line as info text.
func parseLine(line string) (topic, text string, level batcher.Level) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", batcher.LevelInfo
	}
	parts := strings.SplitN(line, "|", 3)
	if len(parts) == 1 {
		return "", line, batcher.LevelInfo
	}

	lvl, ok := parseLevel(parts[0])
	if !ok {
		return "", line, batcher.LevelInfo
	}
	if len(parts) == 2 {
		return "", strings.TrimSpace(parts[1]), lvl
	}
	return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), lvl
}

func parseLevel(s string) (batcher.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return batcher.LevelInfo, true
	case "warn", "warning":
		return batcher.LevelWarning, true
	case "error", "err":
		return batcher.LevelError, true
	default:
		return batcher.LevelInfo, false
	}
}
