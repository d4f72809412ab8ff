// Package diffuse implements the position-keyed XOR substitution stage.
package diffuse

import (
	"fmt"

	"github.com/provide-io/pixelroll/pkg/scramble/bits"
	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
	"github.com/provide-io/pixelroll/pkg/scramble/key"
	"github.com/provide-io/pixelroll/pkg/scramble/matrix"
	"github.com/provide-io/pixelroll/pkg/scramble/operations"
	"github.com/provide-io/pixelroll/pkg/utils"
)

func init() {
	operations.Register(NewDiffuseStage())
}

// Operand returns the byte XORed into every channel of pixel (i, j).
// It depends only on position and key, never on pixel content.
func Operand(i, j int, rowKey, colKey []int) uint8 {
	op1 := uint(colKey[j])
	if i%2 == 0 {
		op1 = bits.ReverseBits(op1)
	}
	op2 := uint(rowKey[i])
	if j%2 == 1 {
		op2 = bits.ReverseBits(op2)
	}
	return uint8(op1 ^ op2)
}

// Diffuse XORs each pixel with its operand. Calling it twice with the same
// keys restores the input.
func Diffuse(m *matrix.Matrix, rowKey, colKey []int) error {
	if len(rowKey) < m.Rows || len(colKey) < m.Cols {
		return fmt.Errorf("%w: diffusion keys %dx%d for image %dx%d",
			pxerrors.ErrShapeMismatch, len(rowKey), len(colKey), m.Rows, m.Cols)
	}

	stride := m.Cols * matrix.Channels
	mask := make([]byte, stride)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			op := Operand(i, j, rowKey, colKey)
			mask[j*matrix.Channels] = op
			mask[j*matrix.Channels+1] = op
			mask[j*matrix.Channels+2] = op
		}
		utils.XORInPlace(m.Pix[i*stride:(i+1)*stride], mask)
	}
	return nil
}

// DiffuseStage is self-inverse, so Apply and Reverse do the same work.
type DiffuseStage struct {
	operations.BaseStage
}

func NewDiffuseStage() *DiffuseStage {
	return &DiffuseStage{
		BaseStage: operations.BaseStage{
			OpID:   operations.OP_DIFFUSE,
			OpName: "DIFFUSE",
		},
	}
}

func (s *DiffuseStage) Apply(m *matrix.Matrix, k *key.Key, _ operations.Options) (*matrix.Matrix, error) {
	if err := Diffuse(m, k.RowKey, k.ColKey); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *DiffuseStage) Reverse(m *matrix.Matrix, k *key.Key, opts operations.Options) (*matrix.Matrix, error) {
	return s.Apply(m, k, opts)
}
