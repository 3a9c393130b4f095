package hostfuncs

import (
	"context"
	"encoding/json"
	"fmt"
)

// ByteHandler accepts a raw request payload and returns the raw response
// written back into the core's buffer.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// HostFunc is a typed handler body.
type HostFunc[Req any, Resp any] func(context.Context, Req) (Resp, error)

// Decoder turns a request payload into a typed request.
type Decoder[Req any] func([]byte) (Req, error)

// NewHandler wraps a typed HostFunc into a ByteHandler. Requests are
// decoded with decode, so they can follow the session's wire format, and
// responses are encoded as JSON.
func NewHandler[Req any, Resp any](decode Decoder[Req], fn HostFunc[Req, Resp]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		req, err := decode(payload)
		if err != nil {
			return nil, err
		}

		resp, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}

		respBytes, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return respBytes, nil
	}
}
