package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMalformedMessageError(t *testing.T) {
	err := &MalformedMessageError{Format: "flat", Reason: "expected identifier", Field: 0}

	assert.Equal(t, "malformed message (flat) at field 0: expected identifier", err.Error())
	assert.True(t, errors.Is(err, ErrMalformedMessage))
	assert.False(t, errors.Is(err, ErrUnknownOperation))

	wrapped := fmt.Errorf("sync: %w", err)
	var target *MalformedMessageError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "flat", target.Format)
}

func TestMalformedNode(t *testing.T) {
	err := MalformedNode("abc", "tag must not be empty")
	assert.Equal(t, "malformed message for node abc: tag must not be empty", err.Error())
	assert.Equal(t, "abc", err.ToErrorDetail().NodeID)
}

func TestMalformedMessageError_Unwrap(t *testing.T) {
	base := errors.New("unexpected EOF")
	err := &MalformedMessageError{Format: "cbor", Err: base, Field: -1}

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "malformed message (cbor): unexpected EOF", err.Error())
}

func TestUnknownOperationError(t *testing.T) {
	err := &UnknownOperationError{Name: "launch-missiles"}

	assert.Equal(t, `unknown operation: "launch-missiles"`, err.Error())
	assert.ErrorIs(t, err, ErrUnknownOperation)
	assert.Equal(t, "unknown_operation", err.ToErrorDetail().Type)
}

func TestDanglingParentError(t *testing.T) {
	err := &DanglingParentError{NodeID: "child", ParentID: "parent", Reason: "parent was removed"}

	assert.Equal(t, "node child references unknown parent parent: parent was removed", err.Error())
	assert.ErrorIs(t, err, ErrDanglingParent)

	detail := err.ToErrorDetail()
	assert.Equal(t, "dangling_parent", detail.Type)
	assert.Equal(t, "child", detail.NodeID)
}

func TestIdentityReuseError(t *testing.T) {
	assert.Equal(t, "identifier x is already bound", (&IdentityReuseError{ID: "x"}).Error())
	assert.Equal(t, "identifier x was retired and cannot be bound again",
		(&IdentityReuseError{ID: "x", Retired: true}).Error())
	assert.ErrorIs(t, &IdentityReuseError{ID: "x"}, ErrIdentityReuse)
}

func TestBufferOverflowError(t *testing.T) {
	err := &BufferOverflowError{Region: "general", Requested: 10, Capacity: 4}

	assert.Equal(t, "general buffer overflow: payload of 10 bytes exceeds capacity 4", err.Error())
	assert.ErrorIs(t, err, ErrBufferOverflow)
	assert.Equal(t, 10, err.ToErrorDetail().Details["requested"])
}

func TestToErrorDetail(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, ToErrorDetail(nil))
	})

	t.Run("detailed error through wrapping", func(t *testing.T) {
		err := fmt.Errorf("dispatch: %w", &UnknownOperationError{Name: "x"})
		detail := ToErrorDetail(err)
		require.NotNil(t, detail)
		assert.Equal(t, "unknown_operation", detail.Type)
	})

	t.Run("generic error", func(t *testing.T) {
		detail := ToErrorDetail(errors.New("boom"))
		assert.Equal(t, "internal", detail.Type)
		assert.Equal(t, "boom", detail.Message)
	})
}
