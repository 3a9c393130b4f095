// Package errors provides the bridge's error taxonomy.
// All error types support unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/uu-dev/uu-bridge/domain/entities"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrMalformedMessage = stdErrors.New("malformed message")
	ErrUnknownOperation = stdErrors.New("unknown operation")
	ErrDanglingParent   = stdErrors.New("dangling parent reference")
	ErrIdentityReuse    = stdErrors.New("identity reuse violation")
	ErrBufferOverflow   = stdErrors.New("buffer overflow")
)

// DetailedError is implemented by errors that can describe themselves as a
// structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to the structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// MalformedMessageError reports a payload that does not parse under the
// active wire format, or a node whose fields violate the protocol.
type MalformedMessageError struct {
	Err    error
	Format string
	NodeID string
	Reason string
	Field  int // index of the offending field for positional formats, -1 otherwise
}

func (e *MalformedMessageError) Error() string {
	msg := "malformed message"
	if e.Format != "" {
		msg += " (" + e.Format + ")"
	}
	if e.NodeID != "" {
		msg += fmt.Sprintf(" for node %s", e.NodeID)
	}
	if e.Field >= 0 && e.NodeID == "" {
		msg += fmt.Sprintf(" at field %d", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedMessageError) Unwrap() error {
	return e.Err
}

// Is matches ErrMalformedMessage.
func (e *MalformedMessageError) Is(target error) bool {
	return target == ErrMalformedMessage
}

// ToErrorDetail implements DetailedError.
func (e *MalformedMessageError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "malformed_message", Code: e.Format, NodeID: e.NodeID}
}

// Malformed is shorthand for a node-independent MalformedMessageError.
func Malformed(format, reason string) *MalformedMessageError {
	return &MalformedMessageError{Format: format, Reason: reason, Field: -1}
}

// MalformedNode is shorthand for a MalformedMessageError scoped to a node.
func MalformedNode(nodeID, reason string) *MalformedMessageError {
	return &MalformedMessageError{NodeID: nodeID, Reason: reason, Field: -1}
}

// UnknownOperationError reports an RPC name outside the supported set.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation: %q", e.Name)
}

// Is matches ErrUnknownOperation.
func (e *UnknownOperationError) Is(target error) bool {
	return target == ErrUnknownOperation
}

// ToErrorDetail implements DetailedError.
func (e *UnknownOperationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "unknown_operation", Code: e.Name}
}

// DanglingParentError reports a node whose parent is not, and may never
// be, resolvable.
type DanglingParentError struct {
	NodeID   string
	ParentID string
	Reason   string
}

func (e *DanglingParentError) Error() string {
	msg := fmt.Sprintf("node %s references unknown parent %s", e.NodeID, e.ParentID)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is matches ErrDanglingParent.
func (e *DanglingParentError) Is(target error) bool {
	return target == ErrDanglingParent
}

// ToErrorDetail implements DetailedError.
func (e *DanglingParentError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    "dangling_parent",
		Code:    e.ParentID,
		NodeID:  e.NodeID,
	}
}

// IdentityReuseError reports an attempt to bind a second live element under
// an identifier, or to bind a retired identifier.
type IdentityReuseError struct {
	ID      string
	Retired bool
}

func (e *IdentityReuseError) Error() string {
	if e.Retired {
		return fmt.Sprintf("identifier %s was retired and cannot be bound again", e.ID)
	}
	return fmt.Sprintf("identifier %s is already bound", e.ID)
}

// Is matches ErrIdentityReuse.
func (e *IdentityReuseError) Is(target error) bool {
	return target == ErrIdentityReuse
}

// ToErrorDetail implements DetailedError.
func (e *IdentityReuseError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "identity_reuse", NodeID: e.ID}
}

// BufferOverflowError reports a payload larger than the scratch region.
type BufferOverflowError struct {
	Region    string
	Requested int
	Capacity  uint32
}

func (e *BufferOverflowError) Error() string {
	return fmt.Sprintf("%s buffer overflow: payload of %d bytes exceeds capacity %d",
		e.Region, e.Requested, e.Capacity)
}

// Is matches ErrBufferOverflow.
func (e *BufferOverflowError) Is(target error) bool {
	return target == ErrBufferOverflow
}

// ToErrorDetail implements DetailedError.
func (e *BufferOverflowError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    "buffer_overflow",
		Code:    e.Region,
		Details: map[string]any{"requested": e.Requested, "capacity": e.Capacity},
	}
}
