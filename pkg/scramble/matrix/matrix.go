// Package matrix provides the rows × cols × 3 byte matrix the transform
// pipeline operates on.
package matrix

import (
	"bytes"
	"fmt"

	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
)

// Channels is the fixed number of color channels per pixel.
const Channels = 3

// Matrix is a packed RGB pixel matrix. Element (i, j, c) lives at
// Pix[(i*Cols+j)*Channels+c].
type Matrix struct {
	Rows int
	Cols int
	Pix  []uint8
}

// New allocates a zeroed matrix.
func New(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: shape %dx%d", pxerrors.ErrUnsupportedImage, rows, cols)
	}
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Pix:  make([]uint8, rows*cols*Channels),
	}, nil
}

// FromPix wraps an existing packed buffer after checking its length.
func FromPix(rows, cols int, pix []uint8) (*Matrix, error) {
	m := &Matrix{Rows: rows, Cols: cols, Pix: pix}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that the matrix is non-empty and that Pix matches the shape.
func (m *Matrix) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", pxerrors.ErrUnsupportedImage)
	}
	if m.Rows <= 0 || m.Cols <= 0 {
		return fmt.Errorf("%w: shape %dx%d", pxerrors.ErrUnsupportedImage, m.Rows, m.Cols)
	}
	if want := m.Rows * m.Cols * Channels; len(m.Pix) != want {
		return fmt.Errorf("%w: %d bytes for %dx%dx%d, want %d",
			pxerrors.ErrUnsupportedImage, len(m.Pix), m.Rows, m.Cols, Channels, want)
	}
	return nil
}

// Offset returns the index of (i, j, c) in Pix.
func (m *Matrix) Offset(i, j, c int) int {
	return (i*m.Cols+j)*Channels + c
}

func (m *Matrix) At(i, j, c int) uint8 {
	return m.Pix[m.Offset(i, j, c)]
}

func (m *Matrix) Set(i, j, c int, v uint8) {
	m.Pix[m.Offset(i, j, c)] = v
}

// Clone returns a deep copy that shares no memory with m.
func (m *Matrix) Clone() *Matrix {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &Matrix{Rows: m.Rows, Cols: m.Cols, Pix: pix}
}

// Equal reports whether both matrices have the same shape and bytes.
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Rows == o.Rows && m.Cols == o.Cols && bytes.Equal(m.Pix, o.Pix)
}

func (m *Matrix) String() string {
	return fmt.Sprintf("%dx%dx%d", m.Rows, m.Cols, Channels)
}
