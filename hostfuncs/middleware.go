package hostfuncs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Middleware wraps a ByteHandler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next ByteHandler) ByteHandler

// RegistryOption is a functional option for configuring a HandlerRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware catches handler panics so they cannot unwind
// through the WASM runtime. The recovered panic is returned both as an
// ErrorResponse body and as an error, so the caller reports a failure.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					op, _ := OperationFrom(ctx)
					resp = NewPanicError(r).ToJSON()
					err = fmt.Errorf("hostfuncs: panic in %s: %v", op, r)
				}
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware logs every invocation through logger.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			op, ok := OperationFrom(ctx)
			if !ok {
				op = "unknown"
			}

			start := time.Now()
			resp, err := next(ctx, payload)
			if err != nil {
				logger.ErrorContext(ctx, "operation failed",
					"operation", op,
					"payload_bytes", len(payload),
					"error", err)
				return resp, err
			}
			logger.DebugContext(ctx, "operation completed",
				"operation", op,
				"payload_bytes", len(payload),
				"response_bytes", len(resp),
				"duration", time.Since(start))
			return resp, nil
		}
	}
}

// TracingMiddleware records a span per invocation.
func TracingMiddleware(tp trace.TracerProvider) Middleware {
	tracer := tp.Tracer("github.com/uu-dev/uu-bridge/hostfuncs")
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			op, ok := OperationFrom(ctx)
			if !ok {
				op = "unknown"
			}

			spanCtx, span := tracer.Start(ctx, "hostfuncs."+string(op),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("uu.operation", string(op)),
					attribute.Int("uu.payload_bytes", len(payload)),
				))
			defer span.End()

			// Keep the operation visible to inner middleware.
			resp, err := next(NewHostContext(spanCtx, op), payload)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return resp, err
			}
			span.SetAttributes(attribute.Int("uu.response_bytes", len(resp)))
			return resp, nil
		}
	}
}
