package hostfuncs

import (
	"bytes"

	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
)

// Operation is a named RPC the core module may invoke.
type Operation string

// The supported operations. The set is closed: ParseOperation rejects
// every other name.
const (
	OpSyncTree            Operation = "sync-tree"
	OpRemoveElements      Operation = "remove-elements"
	OpLookupByKey         Operation = "lookup-by-key"
	OpGenerateID          Operation = "generate-id"
	OpConsoleLog          Operation = "console-log"
	OpAddEventListener    Operation = "add-event-listener"
	OpRemoveEventListener Operation = "remove-event-listener"
)

// Operations returns every supported operation.
func Operations() []Operation {
	return []Operation{
		OpSyncTree,
		OpRemoveElements,
		OpLookupByKey,
		OpGenerateID,
		OpConsoleLog,
		OpAddEventListener,
		OpRemoveEventListener,
	}
}

// ParseOperation maps a wire name to an Operation.
func ParseOperation(name string) (Operation, error) {
	switch op := Operation(name); op {
	case OpSyncTree,
		OpRemoveElements,
		OpLookupByKey,
		OpGenerateID,
		OpConsoleLog,
		OpAddEventListener,
		OpRemoveEventListener:
		return op, nil
	default:
		return "", &bridgeerrors.UnknownOperationError{Name: name}
	}
}

func (op Operation) String() string {
	return string(op)
}

// SplitMessage splits a request at its first null byte. A message without
// a null byte is a bare name with an empty payload.
func SplitMessage(msg []byte) (name string, payload []byte) {
	i := bytes.IndexByte(msg, 0)
	if i < 0 {
		return string(msg), nil
	}
	return string(msg[:i]), msg[i+1:]
}

// JoinMessage builds a request for op carrying payload.
func JoinMessage(op Operation, payload []byte) []byte {
	msg := make([]byte, 0, len(op)+1+len(payload))
	msg = append(msg, op...)
	msg = append(msg, 0)
	return append(msg, payload...)
}
