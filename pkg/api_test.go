package pkg

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/pixelroll/pkg/config"
	"github.com/provide-io/pixelroll/pkg/imageio"
	"github.com/provide-io/pixelroll/pkg/scramble/key"
	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  t.Name(),
		Level: hclog.Trace,
	})
}

func writeTestImage(t *testing.T, dir string, rows, cols int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x ^ y), A: 255})
		}
	}
	path := filepath.Join(dir, "photo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func testSettings(t *testing.T, codec string) *config.Settings {
	t.Helper()
	workers := 2
	iterations := 3
	s, err := config.Resolve(config.Overrides{
		KeyCodec:   codec,
		Workers:    &workers,
		Iterations: &iterations,
	}, func(string) string { return "" })
	require.NoError(t, err)
	return s
}

func TestEncryptDecryptFile(t *testing.T) {
	for _, codec := range []string{"raw", "gzip", "bzip2", "zstd"} {
		t.Run(codec, func(t *testing.T) {
			dir := t.TempDir()
			input := writeTestImage(t, dir, 5, 9)
			logger := testLogger(t)

			res, err := EncryptFile(input, EncryptOptions{
				Settings: testSettings(t, codec),
				Logger:   logger,
				Rand:     key.NewSeededRand(42),
			})
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "photo.scrambled.png"), res.ImagePath)
			assert.Equal(t, filepath.Join(dir, "photo.key.txt"), res.KeyPath)
			assert.Equal(t, 5, res.Rows)
			assert.Equal(t, 9, res.Cols)

			info, err := os.Stat(res.KeyPath)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			out, err := DecryptFile(res.ImagePath, res.KeyPath, DecryptOptions{Logger: logger})
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "photo.restored.png"), out)

			original, _, err := imageio.DecodeFile(input)
			require.NoError(t, err)
			scrambled, _, err := imageio.DecodeFile(res.ImagePath)
			require.NoError(t, err)
			restored, _, err := imageio.DecodeFile(out)
			require.NoError(t, err)

			assert.True(t, original.Equal(restored))
			assert.False(t, original.Equal(scrambled))
		})
	}
}

func TestEncryptFileExplicitOutputs(t *testing.T) {
	dir := t.TempDir()
	input := writeTestImage(t, dir, 3, 4)

	res, err := EncryptFile(input, EncryptOptions{
		OutputPath: filepath.Join(dir, "out.bmp"),
		KeyPath:    filepath.Join(dir, "secret.txt"),
		Settings:   testSettings(t, "raw"),
	})
	require.NoError(t, err)

	_, format, err := imageio.DecodeFile(res.ImagePath)
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)

	out, err := DecryptFile(res.ImagePath, res.KeyPath, DecryptOptions{Format: "TIFF"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.restored.tiff"), out)
}

func TestOutputFormatIgnoresCase(t *testing.T) {
	testCases := []struct {
		explicit, output, source string
		want                     string
		wantErr                  bool
	}{
		{explicit: "PNG", want: "png"},
		{explicit: " Tiff ", want: "tiff"},
		{explicit: "JPEG", wantErr: true},
		{output: "out.BMP", want: "bmp"},
		{output: "out.JPG", wantErr: true},
		{source: "jpeg", want: "png"},
		{source: "bmp", want: "bmp"},
	}

	for _, tc := range testCases {
		got, err := outputFormat(tc.explicit, tc.output, tc.source)
		if tc.wantErr {
			assert.ErrorIs(t, err, pxerrors.ErrUnsupportedFormat, "%+v", tc)
			continue
		}
		require.NoError(t, err, "%+v", tc)
		assert.Equal(t, tc.want, got, "%+v", tc)
	}
}

func TestEncryptFileRejectsLossyOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeTestImage(t, dir, 3, 4)

	_, err := EncryptFile(input, EncryptOptions{
		OutputPath: filepath.Join(dir, "out.jpg"),
		Settings:   testSettings(t, "raw"),
	})
	require.ErrorIs(t, err, pxerrors.ErrUnsupportedFormat)
	assert.Equal(t, ExitImageError, ExitCode(err))

	_, err = os.Stat(filepath.Join(dir, "photo.key.txt"))
	assert.True(t, os.IsNotExist(err), "no key should be written")
}

func TestEncryptFileLegacyRejectsTallImage(t *testing.T) {
	dir := t.TempDir()
	input := writeTestImage(t, dir, 6, 2)

	_, err := EncryptFile(input, EncryptOptions{Settings: testSettings(t, "raw")})
	require.ErrorIs(t, err, pxerrors.ErrShapeMismatch)
	assert.Equal(t, ExitKeyError, ExitCode(err))
}

func TestDecryptFileWrongImage(t *testing.T) {
	dir := t.TempDir()
	input := writeTestImage(t, dir, 4, 4)

	res, err := EncryptFile(input, EncryptOptions{Settings: testSettings(t, "raw")})
	require.NoError(t, err)

	// The original is the same shape but does not match the fingerprint.
	_, err = DecryptFile(input, res.KeyPath, DecryptOptions{})
	require.ErrorIs(t, err, pxerrors.ErrFingerprintMismatch)
}

func TestInspectKey(t *testing.T) {
	dir := t.TempDir()
	input := writeTestImage(t, dir, 4, 6)

	res, err := EncryptFile(input, EncryptOptions{Settings: testSettings(t, "zstd")})
	require.NoError(t, err)

	report, err := InspectKey(res.KeyPath, "", testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "zstd", report.Codec)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 6, report.Cols)
	assert.Equal(t, 3, report.Iterations)
	assert.Equal(t, key.DefaultAlpha, report.Alpha)
	assert.Equal(t, key.SchemeLegacy, report.Scheme)
	assert.NotEmpty(t, report.Fingerprint)

	report, err = InspectKey(res.KeyPath, res.ImagePath, testLogger(t))
	require.NoError(t, err)
	assert.True(t, report.OK(), report.Problems)

	report, err = InspectKey(res.KeyPath, input, testLogger(t))
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Len(t, report.Problems, 1)
}

func TestExitCode(t *testing.T) {
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "missing"))

	testCases := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{ErrMissingKey, ExitUsage},
		{statErr, ExitIOError},
		{fmt.Errorf("wrapped: %w", pxerrors.ErrMalformedKey), ExitKeyError},
		{pxerrors.ErrShapeMismatch, ExitKeyError},
		{pxerrors.ErrFingerprintMismatch, ExitKeyError},
		{ErrKeyMismatch, ExitKeyError},
		{pxerrors.ErrUnsupportedImage, ExitImageError},
		{pxerrors.ErrUnsupportedFormat, ExitImageError},
		{errors.New("something else"), ExitFailure},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, ExitCode(tc.err), "%v", tc.err)
	}
}
