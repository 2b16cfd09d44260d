package runner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders an elapsed duration the way the CLI reports it:
// milliseconds below a second, fractional seconds below a minute, and
// minutes with fractional seconds beyond.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		mins := int(d.Minutes())
		secs := d.Seconds() - float64(mins)*60
		return fmt.Sprintf("%dm %.1fs", mins, secs)
	}
}

// PreviewResult compresses a tool result for single-line display: the first
// line capped at 60 runes, with a line counter when more follow.
func PreviewResult(s string) string {
	lines := strings.Split(s, "\n")
	first := truncateRunes(lines[0], 60)
	if len(lines) > 1 {
		return fmt.Sprintf("%s (+%d lines)", first, len(lines)-1)
	}
	return first
}

// PreviewArgs renders tool args as compact JSON capped at 50 runes.
func PreviewArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return truncateRunes(string(b), 50)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
