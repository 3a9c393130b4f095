// Package log routes structured logs across the core/host boundary.
//
// Inside the core, ConsoleHandler encodes slog records as LogMessageWire
// JSON and hands them to a sink, normally the console_log import. On the
// host, ConsoleSink turns console_log payloads back into slog records:
// structured messages keep their level and attributes, anything else is
// logged verbatim at Info.
package log

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
)

// Sink receives one encoded log message.
type Sink func(payload []byte)

// ConsoleHandler implements slog.Handler by encoding records for a Sink.
type ConsoleHandler struct {
	sink   Sink
	attrs  []slog.Attr
	groups []string
	opts   handlerConfig
}

// HandlerOption configures the ConsoleHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Level
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level are dropped before crossing the boundary.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// NewHandler creates a ConsoleHandler writing to sink.
func NewHandler(sink Sink, opts ...HandlerOption) *ConsoleHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ConsoleHandler{sink: sink, opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, h.qualify(a))
	}
	return &clone
}

// WithGroup returns a handler that prefixes later attribute keys with name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(slices.Clone(h.groups), name)
	return &clone
}

// Handle encodes the record and passes it to the sink.
func (h *ConsoleHandler) Handle(_ context.Context, record slog.Record) error {
	msg := LogMessageWire{
		Level:     record.Level.String(),
		Message:   record.Message,
		Timestamp: record.Time,
	}
	for _, a := range h.attrs {
		msg.Attrs = append(msg.Attrs, toLogAttrWire(a))
	}
	record.Attrs(func(a slog.Attr) bool {
		msg.Attrs = append(msg.Attrs, toLogAttrWire(h.qualify(a)))
		return true
	})
	if h.opts.addSource && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		msg.Attrs = append(msg.Attrs, LogAttrWire{
			Key:   slog.SourceKey,
			Type:  "string",
			Value: fmt.Sprintf("%s:%d", frame.File, frame.Line),
		})
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("log: failed to encode record: %w", err)
	}
	h.sink(payload)
	return nil
}

func (h *ConsoleHandler) qualify(a slog.Attr) slog.Attr {
	for i := len(h.groups) - 1; i >= 0; i-- {
		a.Key = h.groups[i] + "." + a.Key
	}
	return a
}
