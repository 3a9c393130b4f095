package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel parses a level name such as "debug" or "WARN+2".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log: invalid level %q: %w", s, err)
	}
	return l, nil
}

// NewLogger builds the host logger. format is "text" or "json".
func NewLogger(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log: unknown format %q", format)
	}
}

// ConsoleSink logs console_log payloads from the core on the host.
type ConsoleSink struct {
	logger *slog.Logger
}

// NewConsoleSink creates a sink that tags every record with source=core.
func NewConsoleSink(logger *slog.Logger) *ConsoleSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleSink{logger: logger.With("source", "core")}
}

// Emit logs one payload. Structured payloads keep their level and
// attributes; plain text is logged at Info. extra is appended as is.
func (s *ConsoleSink) Emit(ctx context.Context, payload []byte, extra ...slog.Attr) {
	msg, ok := DecodeMessage(payload)
	if !ok {
		s.logger.LogAttrs(ctx, slog.LevelInfo, string(payload), extra...)
		return
	}

	level, _ := ParseLevel(msg.Level)
	attrs := make([]slog.Attr, 0, len(msg.Attrs)+len(extra))
	for _, a := range msg.Attrs {
		attrs = append(attrs, slog.String(a.Key, a.Value))
	}
	attrs = append(attrs, extra...)
	s.logger.LogAttrs(ctx, level, msg.Message, attrs...)
}
