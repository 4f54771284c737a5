// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// TimestampLayout is the naive datetime format practice session times are exchanged in.
const TimestampLayout = "2006-01-02T15:04:05"

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateToken returns an opaque session token backed by a random v4 [uuid.UUID].
func GenerateToken() string {
	return uuid.NewString()
}

// ParseTimestamp parses a practice session datetime.
//
// Accepts the naive [TimestampLayout] (interpreted as UTC), with or without a
// space separator, and RFC 3339. The result is always in UTC.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{TimestampLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized datetime %q", ErrInvalidInput, value)
}

// FormatTimestamp renders t in [TimestampLayout] after converting it to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
