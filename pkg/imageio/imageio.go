// Package imageio converts between encoded raster files and pixel matrices.
//
// Decoding accepts PNG, JPEG, GIF, BMP, TIFF and WebP. Encoding is limited to
// lossless formats, since a single changed byte breaks decryption.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/provide-io/pixelroll/internal/workspace"
	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
	"github.com/provide-io/pixelroll/pkg/scramble/matrix"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	FormatPNG  = "png"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
	FormatJPEG = "jpeg"
	FormatGIF  = "gif"
	FormatWebP = "webp"

	// DefaultFormat is used when an output path has no recognized extension.
	DefaultFormat = FormatPNG

	ImagePerms = 0o644
)

var extensions = map[string]string{
	".png":  FormatPNG,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".gif":  FormatGIF,
	".webp": FormatWebP,
}

// FormatFromPath maps a file extension to a format name, or "" if unknown.
func FormatFromPath(path string) string {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// IsLossless reports whether format can be written without changing pixels.
func IsLossless(format string) bool {
	switch format {
	case FormatPNG, FormatBMP, FormatTIFF:
		return true
	default:
		return false
	}
}

// Decode reads an image and returns its pixel matrix and format name.
func Decode(r io.Reader) (*matrix.Matrix, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", pxerrors.ErrUnsupportedImage, err)
	}
	m, err := FromImage(img)
	if err != nil {
		return nil, format, err
	}
	return m, format, nil
}

// FromImage copies img into a matrix. Single-channel (grayscale) images and
// any pixel that is not fully opaque are rejected. Paletted images are
// expanded to the RGB colors of their palette.
func FromImage(img image.Image) (*matrix.Matrix, error) {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return nil, fmt.Errorf("%w: grayscale image has 1 channel, want %d",
			pxerrors.ErrUnsupportedImage, matrix.Channels)
	}

	b := img.Bounds()
	m, err := matrix.New(b.Dy(), b.Dx())
	if err != nil {
		return nil, err
	}

	p := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A != 0xff {
				return nil, fmt.Errorf("%w: pixel (%d,%d) has alpha %d, only opaque images are supported",
					pxerrors.ErrUnsupportedImage, x, y, c.A)
			}
			m.Pix[p] = c.R
			m.Pix[p+1] = c.G
			m.Pix[p+2] = c.B
			p += matrix.Channels
		}
	}
	return m, nil
}

// ToImage renders m as an opaque NRGBA image.
func ToImage(m *matrix.Matrix) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, m.Cols, m.Rows))
	for i, p := 0, 0; p < len(m.Pix); i, p = i+4, p+matrix.Channels {
		img.Pix[i] = m.Pix[p]
		img.Pix[i+1] = m.Pix[p+1]
		img.Pix[i+2] = m.Pix[p+2]
		img.Pix[i+3] = 0xff
	}
	return img
}

// Encode writes m in a lossless format.
func Encode(w io.Writer, m *matrix.Matrix, format string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	img := ToImage(m)

	switch format {
	case FormatPNG, "":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatJPEG, FormatGIF, FormatWebP:
		return fmt.Errorf("%w: %s is lossy or read-only, use png, bmp or tiff", pxerrors.ErrUnsupportedFormat, format)
	default:
		return fmt.Errorf("%w: %q", pxerrors.ErrUnsupportedFormat, format)
	}
}

// DecodeFile opens and decodes path.
func DecodeFile(path string) (*matrix.Matrix, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	m, format, err := Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return m, format, nil
}

// EncodeFile encodes m and atomically writes it to path.
func EncodeFile(path string, m *matrix.Matrix, format string) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m, format); err != nil {
		return err
	}
	return workspace.WriteFileAtomic(path, buf.Bytes(), ImagePerms)
}
