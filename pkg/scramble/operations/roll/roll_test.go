package roll

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/hashicorp/go-hclog"
	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
	"github.com/provide-io/pixelroll/pkg/scramble/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomMatrix(t *testing.T, rng *rand.Rand, rows, cols int) *matrix.Matrix {
	t.Helper()
	m, err := matrix.New(rows, cols)
	require.NoError(t, err)
	for i := range m.Pix {
		m.Pix[i] = uint8(rng.IntN(256))
	}
	return m
}

func randomKey(rng *rand.Rand, n int) []int {
	k := make([]int, n)
	for i := range k {
		k[i] = rng.IntN(255)
	}
	return k
}

func TestShift(t *testing.T) {
	testCases := []struct {
		k    int
		want []uint8
	}{
		{0, []uint8{1, 2, 3, 4}},
		{1, []uint8{4, 1, 2, 3}},
		{-1, []uint8{2, 3, 4, 1}},
		{3, []uint8{2, 3, 4, 1}},
		{4, []uint8{1, 2, 3, 4}},
		{5, []uint8{4, 1, 2, 3}},
		{-6, []uint8{3, 4, 1, 2}},
		{254, []uint8{3, 4, 1, 2}},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("k=%d", tc.k), func(t *testing.T) {
			dst := make([]uint8, 4)
			Shift(dst, []uint8{1, 2, 3, 4}, tc.k)
			assert.Equal(t, tc.want, dst)
		})
	}
}

func TestShiftPreservesParity(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for n := 1; n <= 17; n++ {
		src := make([]uint8, n)
		for i := range src {
			src[i] = uint8(rng.IntN(256))
		}
		dst := make([]uint8, n)
		for k := -2 * n; k <= 2*n; k++ {
			Shift(dst, src, k)
			require.Equal(t, Parity(src), Parity(dst), "n=%d k=%d", n, k)
		}
	}
}

func TestAmount(t *testing.T) {
	assert.Equal(t, 5, Amount(5, 0, true))
	assert.Equal(t, -5, Amount(5, 1, true))
	assert.Equal(t, -5, Amount(5, 0, false))
	assert.Equal(t, 5, Amount(5, 1, false))
}

func TestRollRowsParityDirection(t *testing.T) {
	m, err := matrix.FromPix(1, 4, []uint8{
		1, 1, 0, 2, 0, 0, 3, 0, 0, 4, 0, 0,
	})
	require.NoError(t, err)

	require.NoError(t, RollRows(m, []int{1}, true, 1))

	// channel 0 sums to 10 (even): shifted right
	// channel 1 sums to 1 (odd): shifted left
	assert.Equal(t, []uint8{
		4, 0, 0, 1, 0, 0, 2, 0, 0, 3, 1, 0,
	}, m.Pix)
}

func TestRollColumnsParityDirection(t *testing.T) {
	// 3 rows, 1 column; channel 2 sums to 7 (odd)
	m, err := matrix.FromPix(3, 1, []uint8{
		0, 0, 1,
		0, 0, 2,
		0, 0, 4,
	})
	require.NoError(t, err)

	require.NoError(t, RollColumns(m, []int{1}, true, 1))
	assert.Equal(t, []uint8{
		0, 0, 2,
		0, 0, 4,
		0, 0, 1,
	}, m.Pix)
}

func TestRollRoundTrip(t *testing.T) {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "roll_test",
		Level: hclog.Trace,
	})
	rng := rand.New(rand.NewPCG(3, 4))

	shapes := [][2]int{{1, 1}, {1, 7}, {7, 1}, {5, 5}, {6, 13}, {13, 6}}
	for _, shape := range shapes {
		for _, workers := range []int{1, 3, 64} {
			t.Run(fmt.Sprintf("%dx%d/workers=%d", shape[0], shape[1], workers), func(t *testing.T) {
				orig := randomMatrix(t, rng, shape[0], shape[1])
				rowKey := randomKey(rng, shape[0])
				colKey := randomKey(rng, shape[1])

				m := orig.Clone()
				require.NoError(t, RollRows(m, rowKey, true, workers))
				require.NoError(t, RollColumns(m, colKey, true, workers))

				logger.Trace("🔀 Rolled", "shape", m.String(), "changed", !m.Equal(orig))

				require.NoError(t, RollColumns(m, colKey, false, workers))
				require.NoError(t, RollRows(m, rowKey, false, workers))
				assert.True(t, m.Equal(orig))
			})
		}
	}
}

func TestRollWorkersAgree(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	orig := randomMatrix(t, rng, 31, 17)
	rowKey := randomKey(rng, 31)
	colKey := randomKey(rng, 17)

	serial := orig.Clone()
	require.NoError(t, RollRows(serial, rowKey, true, 1))
	require.NoError(t, RollColumns(serial, colKey, true, 1))

	parallel := orig.Clone()
	require.NoError(t, RollRows(parallel, rowKey, true, 8))
	require.NoError(t, RollColumns(parallel, colKey, true, 8))

	assert.True(t, serial.Equal(parallel))
}

func TestRollShortKey(t *testing.T) {
	m, err := matrix.New(3, 2)
	require.NoError(t, err)

	err = RollRows(m, []int{1, 2}, true, 1)
	require.ErrorIs(t, err, pxerrors.ErrShapeMismatch)

	err = RollColumns(m, []int{1}, true, 1)
	require.ErrorIs(t, err, pxerrors.ErrShapeMismatch)
}

func TestRollLongerKeyUsesPrefix(t *testing.T) {
	m, err := matrix.FromPix(1, 2, []uint8{2, 0, 0, 4, 0, 0})
	require.NoError(t, err)
	require.NoError(t, RollRows(m, []int{1, 200, 7}, true, 1))
	assert.Equal(t, []uint8{4, 0, 0, 2, 0, 0}, m.Pix)
}
