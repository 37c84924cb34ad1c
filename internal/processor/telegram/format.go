package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/21e8/telegram-batch-bot/internal/batcher"
)

// maxMessageLen stays under Telegram's 4096-char limit with margin for the
// HTML tags added per line.
const maxMessageLen = 3500

func levelPrefix(lvl batcher.Level) string {
	switch lvl {
	case batcher.LevelError:
		return "🚨 "
	case batcher.LevelWarning:
		return "⚠️ "
	default:
		return "ℹ️ "
	}
}

// FormatBatch renders a batch as Telegram HTML, one line per message,
// split into chunks at line boundaries when the batch is too long.
// Message order is preserved across chunks.
func FormatBatch(batch []batcher.Message) []string {
	if len(batch) == 0 {
		return nil
	}

	header := fmt.Sprintf("<b>%s</b> — %d message(s)\n", html.EscapeString(batch[0].Topic), len(batch))

	lines := make([]string, 0, len(batch))
	for _, m := range batch {
		line := levelPrefix(m.Level) + html.EscapeString(m.Text)
		if m.Err != nil {
			line += " <code>" + html.EscapeString(m.Err.Error()) + "</code>"
		}
		lines = append(lines, line)
	}

	var out []string
	var b strings.Builder
	b.WriteString(header)
	for _, line := range lines {
		// A single oversized line still gets its own chunk, truncated.
		if len(line) > maxMessageLen {
			line = truncateLine(line, maxMessageLen)
		}
		if b.Len()+len(line)+1 > maxMessageLen {
			out = append(out, strings.TrimRight(b.String(), "\n"))
			b.Reset()
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if b.Len() > 0 {
		out = append(out, strings.TrimRight(b.String(), "\n"))
	}
	return out
}

// truncateLine cuts at a rune boundary and appends an ellipsis.
func truncateLine(s string, maxN int) string {
	if len(s) <= maxN {
		return s
	}
	cut := maxN - 3
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut] + "…"
}
