package hostfuncs

import (
	"encoding/json"
	"errors"

	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
)

// ErrorResponse is the structured error written into the core's buffer
// when an operation fails.
type ErrorResponse struct {
	// Error is a machine-readable error type identifier (e.g. "MALFORMED_MESSAGE").
	Error string `json:"error"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// NodeID names the node the failure is scoped to, if any.
	NodeID string `json:"node_id,omitempty"`

	// Code is an HTTP-like status code.
	Code int `json:"code"`
}

// ToJSON serializes the ErrorResponse to JSON bytes.
// Returns nil if serialization fails (which should never happen for this simple type).
func (e ErrorResponse) ToJSON() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return data
}

// NewErrorResponse maps an error from the bridge taxonomy to its response.
func NewErrorResponse(err error) ErrorResponse {
	detail := bridgeerrors.ToErrorDetail(err)
	resp := ErrorResponse{Message: detail.Message, NodeID: detail.NodeID}

	switch {
	case errors.Is(err, bridgeerrors.ErrMalformedMessage):
		resp.Error, resp.Code = "MALFORMED_MESSAGE", 400
	case errors.Is(err, bridgeerrors.ErrUnknownOperation):
		resp.Error, resp.Code = "UNKNOWN_OPERATION", 404
	case errors.Is(err, bridgeerrors.ErrDanglingParent):
		resp.Error, resp.Code = "DANGLING_PARENT", 409
	case errors.Is(err, bridgeerrors.ErrIdentityReuse):
		resp.Error, resp.Code = "IDENTITY_REUSE", 409
	case errors.Is(err, bridgeerrors.ErrBufferOverflow):
		resp.Error, resp.Code = "BUFFER_OVERFLOW", 413
	default:
		resp.Error, resp.Code = "INTERNAL_ERROR", 500
	}
	return resp
}

// NewPanicError creates an error response for recovered panics.
func NewPanicError(panicValue any) ErrorResponse {
	var msg string
	if err, ok := panicValue.(error); ok {
		msg = err.Error()
	} else if s, ok := panicValue.(string); ok {
		msg = s
	} else {
		msg = "panic recovered"
	}
	return ErrorResponse{
		Error:   "INTERNAL_ERROR",
		Message: "panic: " + msg,
		Code:    500,
	}
}
