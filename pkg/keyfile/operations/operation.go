// Package operations holds the byte transforms a key file payload passes
// through between its JSON form and the base64 text stored on disk.
//
// A chain is a list of operation ids packed into a uint64, one id per byte
// in execution order. Encoding applies the chain front to back; decoding
// reverses it back to front. The chain is recorded in the key envelope by
// name ("gzip", "zstd|gzip"), and "raw" is the empty chain.
package operations

import (
	"errors"
	"fmt"
)

// MaxPayloadSize bounds the decoded size of a key payload. A key for a
// 16k x 16k image stays well below it.
const MaxPayloadSize = 4 << 20

// ErrPayloadTooLarge is returned when decompression would exceed MaxPayloadSize
var ErrPayloadTooLarge = errors.New("❌ key payload exceeds size limit")

// Operation constants
const (
	// No operation - raw data
	OP_NONE = 0x00

	// Compression operations (0x10-0x2F)
	OP_GZIP  = 0x10 // GZIP compression
	OP_BZIP2 = 0x13 // BZIP2 compression
	OP_ZSTD  = 0x1B // Zstandard compression
)

// Operation is a reversible byte transformation applied to key payloads
type Operation interface {
	// ID returns the operation identifier (e.g., OP_GZIP)
	ID() uint8

	// Name returns the human-readable name
	Name() string

	// Apply applies the operation to input data
	Apply(input []byte) ([]byte, error)

	// Reverse reverses the operation (e.g., decompress for compression)
	Reverse(input []byte) ([]byte, error)
}

// BaseOperation provides common functionality for operations
type BaseOperation struct {
	OpID   uint8
	OpName string
}

func (o *BaseOperation) ID() uint8 {
	return o.OpID
}

func (o *BaseOperation) Name() string {
	return o.OpName
}

// Registry maps operation IDs to implementations
var Registry = make(map[uint8]Operation)

// Register registers an operation implementation
func Register(op Operation) {
	Registry[op.ID()] = op
}

// Get retrieves an operation by ID
func Get(id uint8) (Operation, error) {
	op, ok := Registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown operation: 0x%02x", id)
	}
	return op, nil
}

// GetName returns the name of an operation by ID
func GetName(id uint8) string {
	switch id {
	case OP_NONE:
		return "NONE"
	case OP_GZIP:
		return "GZIP"
	case OP_BZIP2:
		return "BZIP2"
	case OP_ZSTD:
		return "ZSTD"
	default:
		return fmt.Sprintf("UNKNOWN_%02x", id)
	}
}
