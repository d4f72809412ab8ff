package operations

import (
	"fmt"

	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
	"github.com/provide-io/pixelroll/pkg/scramble/key"
	"github.com/provide-io/pixelroll/pkg/scramble/matrix"
)

// Stage identifiers
const (
	// No stage
	OP_NONE uint8 = 0x00

	// Permutation stages (0x01-0x0F)
	OP_ROW_ROLL uint8 = 0x01 // cyclic row shifts
	OP_COL_ROLL uint8 = 0x02 // cyclic column shifts

	// Substitution stages (0x10-0x1F)
	OP_DIFFUSE uint8 = 0x10 // position-keyed XOR
)

// Round is the stage order of one forward round.
var Round = []uint8{OP_ROW_ROLL, OP_COL_ROLL, OP_DIFFUSE}

// Options tune how a stage executes without changing its result.
type Options struct {
	// Workers bounds the goroutines a stage may use; values below 2 run inline.
	Workers int
}

// Stage is one reversible step of the pipeline. Both directions take
// ownership of m and return the matrix holding the result, which may be m
// itself.
type Stage interface {
	// ID returns the stage identifier (e.g., OP_DIFFUSE)
	ID() uint8

	// Name returns the human-readable name
	Name() string

	// Apply runs the forward direction
	Apply(m *matrix.Matrix, k *key.Key, opts Options) (*matrix.Matrix, error)

	// Reverse undoes Apply when given the matrix Apply produced
	Reverse(m *matrix.Matrix, k *key.Key, opts Options) (*matrix.Matrix, error)
}

// BaseStage provides common functionality for stages
type BaseStage struct {
	OpID   uint8
	OpName string
}

func (s *BaseStage) ID() uint8 {
	return s.OpID
}

func (s *BaseStage) Name() string {
	return s.OpName
}

// Registry maps stage IDs to implementations
var Registry = make(map[uint8]Stage)

// Register registers a stage implementation
func Register(s Stage) {
	Registry[s.ID()] = s
}

// Get retrieves a stage by ID
func Get(id uint8) (Stage, error) {
	s, ok := Registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02x", pxerrors.ErrUnknownStage, id)
	}
	return s, nil
}

// StageName returns the name of a stage by ID
func StageName(id uint8) string {
	switch id {
	case OP_NONE:
		return "NONE"
	case OP_ROW_ROLL:
		return "ROW_ROLL"
	case OP_COL_ROLL:
		return "COL_ROLL"
	case OP_DIFFUSE:
		return "DIFFUSE"
	default:
		return fmt.Sprintf("UNKNOWN_%02x", id)
	}
}

// ApplyChain runs stages in order.
func ApplyChain(m *matrix.Matrix, k *key.Key, stages []uint8, opts Options) (*matrix.Matrix, error) {
	current := m

	for _, id := range stages {
		s, err := Get(id)
		if err != nil {
			return nil, err
		}

		result, err := s.Apply(current, k, opts)
		if err != nil {
			return nil, fmt.Errorf("applying %s: %w", s.Name(), err)
		}

		current = result
	}

	return current, nil
}

// ReverseChain undoes ApplyChain by reversing each stage in reverse order.
func ReverseChain(m *matrix.Matrix, k *key.Key, stages []uint8, opts Options) (*matrix.Matrix, error) {
	current := m

	for i := len(stages) - 1; i >= 0; i-- {
		s, err := Get(stages[i])
		if err != nil {
			return nil, err
		}

		result, err := s.Reverse(current, k, opts)
		if err != nil {
			return nil, fmt.Errorf("reversing %s: %w", s.Name(), err)
		}

		current = result
	}

	return current, nil
}
