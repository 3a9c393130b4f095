package wazero

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
	"github.com/uu-dev/uu-bridge/domain/ports"
	"github.com/uu-dev/uu-bridge/hostfuncs"
	"github.com/uu-dev/uu-bridge/transport"
	"github.com/uu-dev/uu-bridge/wireformat"
)

// Imports implements the host side of each env function over plain memory
// and buffer values, independent of the wazero calling convention.
type Imports struct {
	registry       *hostfuncs.HandlerRegistry
	logger         *slog.Logger
	maxRequestSize uint32
}

// NewImports creates the import set backed by registry.
func NewImports(registry *hostfuncs.HandlerRegistry, logger *slog.Logger, maxRequestSize uint32) *Imports {
	if logger == nil {
		logger = slog.Default()
	}
	return &Imports{registry: registry, logger: logger, maxRequestSize: maxRequestSize}
}

// request copies the core's request out of linear memory.
func (im *Imports) request(ctx context.Context, fn string, mem ports.Memory, offset, length uint32) ([]byte, bool) {
	data, err := transport.ReadMemory(mem, offset, length, im.maxRequestSize)
	if err != nil {
		im.logger.ErrorContext(ctx, "wazero: failed to read request", "function", fn, "error", err)
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// reply writes data into the general buffer and returns the written length.
func (im *Imports) reply(ctx context.Context, fn string, buf *transport.Buffer, data []byte) (uint32, error) {
	n, err := buf.Write(data)
	if err != nil {
		im.logger.WarnContext(ctx, "wazero: response did not fit the buffer", "function", fn, "error", err)
	}
	return uint32(n), err //nolint:gosec // G115: n is bounded by the buffer capacity
}

// ConsoleLog forwards a log message from the core.
func (im *Imports) ConsoleLog(ctx context.Context, mem ports.Memory, offset, length uint32) {
	payload, ok := im.request(ctx, ports.ImportConsoleLog, mem, offset, length)
	if !ok {
		return
	}
	if _, err := im.registry.Invoke(ctx, hostfuncs.OpConsoleLog, payload); err != nil {
		im.logger.ErrorContext(ctx, "wazero: console_log failed", "error", err)
	}
}

// UUIDv4 writes a fresh identifier into the general buffer and returns its
// length, or zero on failure.
func (im *Imports) UUIDv4(ctx context.Context, buf *transport.Buffer) uint32 {
	id, err := im.registry.Invoke(ctx, hostfuncs.OpGenerateID, nil)
	if err != nil {
		im.logger.ErrorContext(ctx, "wazero: uuid_v4 failed", "error", err)
		return 0
	}
	n, err := im.reply(ctx, ports.ImportUUIDv4, buf, id)
	if err != nil {
		return 0
	}
	return n
}

// SyncElements applies a snapshot. The sync report, or the error response
// for a structural failure, is left in the general buffer.
func (im *Imports) SyncElements(ctx context.Context, mem ports.Memory, buf *transport.Buffer, offset, length uint32) int32 {
	payload, ok := im.request(ctx, ports.ImportSyncElements, mem, offset, length)
	if !ok {
		return ports.StatusFailed
	}

	resp, err := im.registry.Invoke(ctx, hostfuncs.OpSyncTree, payload)
	if err != nil {
		im.logger.ErrorContext(ctx, "wazero: sync_elements failed", "error", err)
		_, _ = im.reply(ctx, ports.ImportSyncElements, buf, hostfuncs.NewErrorResponse(err).ToJSON())
		return ports.StatusFailed
	}
	report, err := hostfuncs.DecodeSyncResponse(resp)
	if err != nil {
		im.logger.ErrorContext(ctx, "wazero: sync_elements returned an unreadable report", "error", err)
		return ports.StatusFailed
	}

	if _, err := im.reply(ctx, ports.ImportSyncElements, buf, resp); err != nil {
		// The snapshot was applied; fall back to a report the core can parse.
		report = report.WithoutErrors()
		im.logger.WarnContext(ctx, "wazero: sync report truncated, node errors omitted",
			"omitted", report.ErrorsOmitted)
		compact, err := json.Marshal(report)
		if err != nil {
			return ports.StatusFailed
		}
		if _, err := im.reply(ctx, ports.ImportSyncElements, buf, compact); err != nil {
			return ports.StatusFailed
		}
	}
	if !report.OK() {
		return ports.StatusNodeErrors
	}
	return ports.StatusOK
}

// GetElementByID resolves a host key to an identifier. The buffer receives
// the identifier, or the null marker when nothing matches or the lookup fails.
func (im *Imports) GetElementByID(ctx context.Context, mem ports.Memory, buf *transport.Buffer, offset, length uint32) uint32 {
	result := []byte(wireformat.NullMarker)
	if key, ok := im.request(ctx, ports.ImportGetElementByID, mem, offset, length); ok {
		id, err := im.registry.Invoke(ctx, hostfuncs.OpLookupByKey, key)
		if err != nil {
			im.logger.ErrorContext(ctx, "wazero: get_element_by_id failed", "error", err)
		} else {
			result = id
		}
	}
	n, _ := im.reply(ctx, ports.ImportGetElementByID, buf, result)
	return n
}

// UploadBytes is the generic entry point: the request is an operation name
// and payload separated by a null byte. On failure the error response is
// left in the buffer and UploadFailed is returned.
func (im *Imports) UploadBytes(ctx context.Context, mem ports.Memory, buf *transport.Buffer, offset, length uint32) uint32 {
	msg, ok := im.request(ctx, ports.ImportUploadBytes, mem, offset, length)
	if !ok {
		return ports.UploadFailed
	}

	resp, err := im.registry.Dispatch(ctx, msg)
	if err == nil {
		var n uint32
		if n, err = im.reply(ctx, ports.ImportUploadBytes, buf, resp); err == nil {
			return n
		}
	}

	op, _ := hostfuncs.SplitMessage(msg)
	im.logger.ErrorContext(ctx, "wazero: upload_bytes failed", "operation", op, "error", err)
	_, _ = im.reply(ctx, ports.ImportUploadBytes, buf, hostfuncs.NewErrorResponse(err).ToJSON())
	return ports.UploadFailed
}

// AddEventListener registers a listener described by the request.
func (im *Imports) AddEventListener(ctx context.Context, mem ports.Memory, offset, length uint32) int32 {
	payload, ok := im.request(ctx, ports.ImportAddEventListener, mem, offset, length)
	if !ok {
		return ports.StatusFailed
	}
	if _, err := im.registry.Invoke(ctx, hostfuncs.OpAddEventListener, payload); err != nil {
		level := slog.LevelError
		if errors.Is(err, bridgeerrors.ErrMalformedMessage) {
			level = slog.LevelWarn
		}
		im.logger.Log(ctx, level, "wazero: add_event_listener failed", "error", err)
		return ports.StatusFailed
	}
	return ports.StatusOK
}
