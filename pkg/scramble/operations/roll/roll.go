// Package roll implements the parity-conditioned cyclic shifts applied to
// every row and column of a pixel matrix.
//
// Each line (one row or column in one channel) is shifted by its key entry.
// The direction flips with the parity of the line's sum. A circular shift
// never changes that sum, so the inverse pass sees the same parity and
// takes the mirrored branch.
package roll

import (
	"fmt"

	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
	"github.com/provide-io/pixelroll/pkg/scramble/matrix"
	"golang.org/x/sync/errgroup"
)

// Shift writes src circularly shifted by k into dst. Positive k moves values
// toward higher indices. dst and src must have equal length and not overlap.
func Shift(dst, src []uint8, k int) {
	n := len(src)
	if n == 0 {
		return
	}
	s := k % n
	if s < 0 {
		s += n
	}
	copy(dst[s:], src[:n-s])
	copy(dst[:s], src[n-s:])
}

// Parity returns the sum of values modulo 2.
func Parity(values []uint8) int {
	var sum int
	for _, v := range values {
		sum += int(v)
	}
	return sum & 1
}

// Amount is the signed shift applied to a line with the given parity.
func Amount(k, parity int, forward bool) int {
	base := 1
	if !forward {
		base = -1
	}
	if parity == 0 {
		return base * k
	}
	return -base * k
}

// line addresses one channel of one row or column inside Pix.
type line struct {
	start, step, n int
}

func (l line) gather(pix, buf []uint8) {
	for t := 0; t < l.n; t++ {
		buf[t] = pix[l.start+t*l.step]
	}
}

func (l line) scatter(pix, buf []uint8) {
	for t := 0; t < l.n; t++ {
		pix[l.start+t*l.step] = buf[t]
	}
}

// rollLine shifts one line in place using the caller's scratch buffers.
func rollLine(pix []uint8, l line, k int, forward bool, src, dst []uint8) {
	src, dst = src[:l.n], dst[:l.n]
	l.gather(pix, src)
	Shift(dst, src, Amount(k, Parity(src), forward))
	l.scatter(pix, dst)
}

// RollRows shifts every row of m, channel by channel, by keys[i]. The key
// must have at least one entry per row.
func RollRows(m *matrix.Matrix, keys []int, forward bool, workers int) error {
	if len(keys) < m.Rows {
		return fmt.Errorf("%w: %d row shifts for %d rows", pxerrors.ErrShapeMismatch, len(keys), m.Rows)
	}
	rowStride := m.Cols * matrix.Channels
	return forEachLine(m.Rows, m.Cols, workers, func(i int, src, dst []uint8) {
		for c := 0; c < matrix.Channels; c++ {
			l := line{start: i*rowStride + c, step: matrix.Channels, n: m.Cols}
			rollLine(m.Pix, l, keys[i], forward, src, dst)
		}
	})
}

// RollColumns shifts every column of m, channel by channel, by keys[j]. The
// key must have at least one entry per column.
func RollColumns(m *matrix.Matrix, keys []int, forward bool, workers int) error {
	if len(keys) < m.Cols {
		return fmt.Errorf("%w: %d column shifts for %d columns", pxerrors.ErrShapeMismatch, len(keys), m.Cols)
	}
	rowStride := m.Cols * matrix.Channels
	return forEachLine(m.Cols, m.Rows, workers, func(j int, src, dst []uint8) {
		for c := 0; c < matrix.Channels; c++ {
			l := line{start: j*matrix.Channels + c, step: rowStride, n: m.Rows}
			rollLine(m.Pix, l, keys[j], forward, src, dst)
		}
	})
}

// forEachLine calls fn for every index in [0, count). Lines touch disjoint
// bytes, so with workers > 1 contiguous index ranges run concurrently. It
// returns once every call has finished.
func forEachLine(count, length, workers int, fn func(idx int, src, dst []uint8)) error {
	if workers < 2 || count < 2 {
		src, dst := make([]uint8, length), make([]uint8, length)
		for idx := 0; idx < count; idx++ {
			fn(idx, src, dst)
		}
		return nil
	}

	if workers > count {
		workers = count
	}
	chunk := (count + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < count; lo += chunk {
		hi := min(lo+chunk, count)
		g.Go(func() error {
			src, dst := make([]uint8, length), make([]uint8, length)
			for idx := lo; idx < hi; idx++ {
				fn(idx, src, dst)
			}
			return nil
		})
	}
	return g.Wait()
}
