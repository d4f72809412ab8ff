package scramble

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/hashicorp/go-hclog"
	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
	"github.com/provide-io/pixelroll/pkg/scramble/key"
	"github.com/provide-io/pixelroll/pkg/scramble/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "transform_test",
		Level: hclog.Trace,
	})
}

func randomMatrix(t *testing.T, rng *rand.Rand, rows, cols int) *matrix.Matrix {
	t.Helper()
	m, err := matrix.New(rows, cols)
	require.NoError(t, err)
	for i := range m.Pix {
		m.Pix[i] = uint8(rng.IntN(256))
	}
	return m
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))

	testCases := []struct {
		rows, cols int
		alpha      int
		iterations int
		scheme     key.Scheme
	}{
		{1, 1, 8, 1, key.SchemeLegacy},
		{2, 2, 8, 1, key.SchemeLegacy},
		{4, 9, 8, 10, key.SchemeLegacy},
		{16, 16, 3, 4, key.SchemeLegacy},
		{9, 9, 1, 2, key.SchemeLegacy},
		{12, 5, 8, 3, key.SchemeMatched},
		{5, 12, 6, 7, key.SchemeMatched},
	}

	for _, tc := range testCases {
		name := fmt.Sprintf("%dx%d/alpha=%d/iter=%d/%s", tc.rows, tc.cols, tc.alpha, tc.iterations, tc.scheme)
		t.Run(name, func(t *testing.T) {
			tr := New(
				WithLogger(testLogger()),
				WithRand(key.NewSeededRand(uint64(tc.rows*1000+tc.cols))),
				WithIterations(tc.iterations),
				WithScheme(tc.scheme),
				WithWorkers(3),
			)

			orig := randomMatrix(t, rng, tc.rows, tc.cols)
			input := orig.Clone()

			enc, k, err := tr.Encrypt(input, tc.alpha)
			require.NoError(t, err)
			assert.Equal(t, tc.iterations, k.Iterations)
			assert.True(t, input.Equal(orig), "encrypt must not touch its input")

			encCopy := enc.Clone()
			dec, err := tr.Decrypt(enc, k)
			require.NoError(t, err)
			assert.True(t, enc.Equal(encCopy), "decrypt must not touch its input")
			assert.True(t, dec.Equal(orig))
		})
	}
}

func TestEncryptAllZeroGolden(t *testing.T) {
	tr := New(WithLogger(testLogger()))
	m, err := matrix.New(2, 2)
	require.NoError(t, err)
	k := &key.Key{RowKey: []int{1, 2}, ColKey: []int{1, 2}, Iterations: 1, Alpha: 8}

	enc, stamped, err := tr.EncryptWithKey(m, k)
	require.NoError(t, err)
	assert.Equal(t, []uint8{
		0, 0, 0, 0, 0, 0,
		3, 3, 3, 3, 3, 3,
	}, enc.Pix)

	dec, err := tr.Decrypt(enc, stamped)
	require.NoError(t, err)
	assert.Equal(t, make([]uint8, 12), dec.Pix)
}

// Known-good vector for a 2x3 image after two rounds.
func TestEncryptReferenceVector(t *testing.T) {
	tr := New()
	pix := make([]uint8, 18)
	for i := range pix {
		pix[i] = uint8(10 + i)
	}
	m, err := matrix.FromPix(2, 3, pix)
	require.NoError(t, err)
	k := &key.Key{RowKey: []int{3, 1}, ColKey: []int{2, 5, 7}, Iterations: 2}

	enc, _, err := tr.EncryptWithKey(m, k)
	require.NoError(t, err)
	assert.Equal(t, []uint8{
		29, 17, 31, 13, 31, 15, 17, 17, 31,
		13, 14, 11, 19, 8, 21, 20, 20, 22,
	}, enc.Pix)

	dec, err := tr.Decrypt(enc, k)
	require.NoError(t, err)
	assert.Equal(t, pix, dec.Pix)
}

func TestEncryptWithKeyReusesKey(t *testing.T) {
	tr := New(WithLogger(testLogger()))
	rng := rand.New(rand.NewPCG(5, 6))
	k, err := key.Generate(key.NewSeededRand(9), 3, 4)
	require.NoError(t, err)

	first := randomMatrix(t, rng, 3, 4)
	second := randomMatrix(t, rng, 3, 4)

	enc1, k1, err := tr.EncryptWithKey(first, k)
	require.NoError(t, err)
	enc2, k2, err := tr.EncryptWithKey(second, k)
	require.NoError(t, err)

	assert.Empty(t, k.Fingerprint, "caller's key must stay untouched")
	assert.NotEqual(t, k1.Fingerprint, k2.Fingerprint)
	assert.Equal(t, k.RowKey, k1.RowKey)
	assert.Equal(t, k.ColKey, k2.ColKey)

	dec1, err := tr.Decrypt(enc1, k1)
	require.NoError(t, err)
	assert.True(t, dec1.Equal(first))

	dec2, err := tr.Decrypt(enc2, k2)
	require.NoError(t, err)
	assert.True(t, dec2.Equal(second))

	// the unstamped key decrypts either image
	dec1, err = tr.Decrypt(enc1, k)
	require.NoError(t, err)
	assert.True(t, dec1.Equal(first))

	_, err = tr.Decrypt(enc1, k2)
	require.ErrorIs(t, err, pxerrors.ErrFingerprintMismatch)
}

func TestSinglePixel(t *testing.T) {
	tr := New(WithRand(key.NewSeededRand(3)))
	m, err := matrix.FromPix(1, 1, []uint8{200, 100, 50})
	require.NoError(t, err)

	enc, k, err := tr.Encrypt(m, 8)
	require.NoError(t, err)

	dec, err := tr.Decrypt(enc, k)
	require.NoError(t, err)
	assert.Equal(t, []uint8{200, 100, 50}, dec.Pix)
}

func TestDecryptIsDeterministic(t *testing.T) {
	tr := New(WithRand(key.NewSeededRand(4)))
	m := randomMatrix(t, rand.New(rand.NewPCG(1, 1)), 6, 8)

	enc, k, err := tr.Encrypt(m, 8)
	require.NoError(t, err)

	a, err := tr.Decrypt(enc, k)
	require.NoError(t, err)
	b, err := New().Decrypt(enc, k)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestDecryptShapeMismatch(t *testing.T) {
	tr := New(WithRand(key.NewSeededRand(5)))
	m := randomMatrix(t, rand.New(rand.NewPCG(2, 2)), 4, 6)

	_, k, err := tr.Encrypt(m, 8)
	require.NoError(t, err)
	k.Fingerprint = ""

	testCases := []struct {
		name       string
		rows, cols int
	}{
		{"fewer rows", 3, 6},
		{"more rows", 5, 6},
		{"fewer cols", 4, 5},
		{"transposed", 6, 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			other, err := matrix.New(tc.rows, tc.cols)
			require.NoError(t, err)
			_, err = tr.Decrypt(other, k)
			require.ErrorIs(t, err, pxerrors.ErrShapeMismatch)
		})
	}
}

func TestLegacyRejectsTallImages(t *testing.T) {
	m, err := matrix.New(5, 3)
	require.NoError(t, err)

	_, _, err = New().Encrypt(m, 8)
	require.ErrorIs(t, err, pxerrors.ErrShapeMismatch)

	_, _, err = New(WithScheme(key.SchemeMatched)).Encrypt(m, 8)
	require.NoError(t, err)
}

func TestDecryptFingerprintMismatch(t *testing.T) {
	tr := New(WithRand(key.NewSeededRand(6)))
	m := randomMatrix(t, rand.New(rand.NewPCG(3, 3)), 4, 4)

	enc, k, err := tr.Encrypt(m, 8)
	require.NoError(t, err)
	enc.Pix[0] ^= 0xff

	_, err = tr.Decrypt(enc, k)
	require.ErrorIs(t, err, pxerrors.ErrFingerprintMismatch)
}

func TestEncryptRejectsBadInput(t *testing.T) {
	tr := New()

	_, _, err := tr.Encrypt(&matrix.Matrix{Rows: 0, Cols: 3}, 8)
	require.ErrorIs(t, err, pxerrors.ErrUnsupportedImage)

	_, _, err = tr.Encrypt(&matrix.Matrix{Rows: 1, Cols: 1, Pix: []uint8{1, 2}}, 8)
	require.ErrorIs(t, err, pxerrors.ErrUnsupportedImage)

	m, err := matrix.New(2, 2)
	require.NoError(t, err)
	_, _, err = tr.Encrypt(m, 9)
	require.ErrorIs(t, err, pxerrors.ErrMalformedKey)
}

func TestDecryptRejectsMalformedKey(t *testing.T) {
	m, err := matrix.New(2, 2)
	require.NoError(t, err)

	_, err = New().Decrypt(m, &key.Key{RowKey: []int{1, 2}, ColKey: []int{1, 2}, Iterations: 0})
	require.ErrorIs(t, err, pxerrors.ErrMalformedKey)
}

func TestConcurrentEncrypt(t *testing.T) {
	tr := New(WithRand(key.NewSeededRand(8)), WithWorkers(2))
	m := randomMatrix(t, rand.New(rand.NewPCG(4, 4)), 8, 8)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			enc, k, err := tr.Encrypt(m, 8)
			if err != nil {
				done <- err
				return
			}
			dec, err := tr.Decrypt(enc, k)
			if err == nil && !dec.Equal(m) {
				err = fmt.Errorf("round trip mismatch")
			}
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
