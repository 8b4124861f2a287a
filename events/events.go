package events

import (
	"strings"
	"time"
)

// Level represents event severity. Levels are ordered: a minimum-level
// gate admits everything at or above it.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

// String returns the canonical upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a severity tag to its Level. WARN is accepted as an
// alias for WARNING, FATAL for CRITICAL.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarning, true
	case "ERROR":
		return LevelError, true
	case "CRITICAL", "FATAL":
		return LevelCritical, true
	default:
		return LevelInfo, false
	}
}

// ParseLine extracts a severity tag from an already-rendered log line.
// It recognizes a leading bare token ("ERROR 12:00:01 ...") or a leading
// bracketed tag ("[ERROR] ..."). Lines with no recognizable tag default
// to INFO; the broker never re-formats what it is fed.
func ParseLine(line string) Level {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return LevelInfo
	}

	token := trimmed
	if i := strings.IndexAny(trimmed, " \t"); i >= 0 {
		token = trimmed[:i]
	}
	token = strings.Trim(token, "[]:")

	level, _ := ParseLevel(token)
	return level
}

// Entry is one structured event held in the broker's cache and offered
// to subscribers.
type Entry struct {
	// Level is the event severity.
	Level Level `json:"level"`

	// Message is the rendered event text.
	Message string `json:"message"`

	// Source names the logical origin, e.g. a component name.
	Source string `json:"source"`

	// Timestamp is when the entry was published.
	Timestamp time.Time `json:"timestamp"`

	// Extra is an optional key-value bag.
	Extra map[string]string `json:"extra,omitempty"`
}
