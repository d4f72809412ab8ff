package pkg

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/pixelroll/internal/workspace"
	"github.com/provide-io/pixelroll/pkg/config"
	"github.com/provide-io/pixelroll/pkg/imageio"
	"github.com/provide-io/pixelroll/pkg/keyfile"
	"github.com/provide-io/pixelroll/pkg/scramble"
	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
)

// EncryptOptions controls EncryptFile. Empty paths fall back to names
// derived from the input image.
type EncryptOptions struct {
	OutputPath string
	KeyPath    string
	Format     string
	Settings   *config.Settings
	Logger     hclog.Logger
	Rand       *rand.Rand
}

// EncryptResult reports where EncryptFile wrote its outputs
type EncryptResult struct {
	ImagePath string
	KeyPath   string
	Rows      int
	Cols      int
}

// DecryptOptions controls DecryptFile
type DecryptOptions struct {
	OutputPath string
	Format     string
	Settings   *config.Settings
	Logger     hclog.Logger
}

// EncryptFile scrambles the image at inputPath, writing the scrambled image
// and its key file.
func EncryptFile(inputPath string, opts EncryptOptions) (*EncryptResult, error) {
	settings, err := settingsOrDefault(opts.Settings)
	if err != nil {
		return nil, err
	}
	logger := loggerOrNull(opts.Logger)

	m, srcFormat, err := imageio.DecodeFile(inputPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("📖 Decoded image", "path", inputPath, "format", srcFormat, "shape", m.String())

	paths := workspace.NewPaths(inputPath)
	format, err := outputFormat(opts.Format, opts.OutputPath, srcFormat)
	if err != nil {
		return nil, err
	}
	imagePath := opts.OutputPath
	if imagePath == "" {
		imagePath = paths.Scrambled(format)
	}
	keyPath := opts.KeyPath
	if keyPath == "" {
		keyPath = paths.Key()
	}

	t := scramble.New(
		scramble.WithLogger(logger),
		scramble.WithRand(opts.Rand),
		scramble.WithWorkers(settings.Workers),
		scramble.WithIterations(settings.Iterations),
		scramble.WithScheme(settings.Scheme),
	)
	scrambled, k, err := t.Encrypt(m, settings.Alpha)
	if err != nil {
		return nil, err
	}

	// The key goes first: an image without its key is unrecoverable.
	if err := keyfile.WriteFile(keyPath, k, settings.KeyCodec, settings.KeyPerms); err != nil {
		return nil, fmt.Errorf("writing key: %w", err)
	}
	logger.Info("🔑 Key written", "path", keyPath, "codec", settings.KeyCodec)

	if err := imageio.EncodeFile(imagePath, scrambled, format); err != nil {
		return nil, fmt.Errorf("writing image: %w", err)
	}
	logger.Info("🖼️ Scrambled image written", "path", imagePath, "format", format)

	return &EncryptResult{
		ImagePath: imagePath,
		KeyPath:   keyPath,
		Rows:      m.Rows,
		Cols:      m.Cols,
	}, nil
}

// DecryptFile restores the image at inputPath using the key at keyPath and
// returns the path of the restored image.
func DecryptFile(inputPath, keyPath string, opts DecryptOptions) (string, error) {
	settings, err := settingsOrDefault(opts.Settings)
	if err != nil {
		return "", err
	}
	logger := loggerOrNull(opts.Logger)

	k, err := keyfile.ReadFile(keyPath)
	if err != nil {
		return "", err
	}
	m, srcFormat, err := imageio.DecodeFile(inputPath)
	if err != nil {
		return "", err
	}
	logger.Debug("📖 Decoded image", "path", inputPath, "format", srcFormat, "shape", m.String())

	format, err := outputFormat(opts.Format, opts.OutputPath, srcFormat)
	if err != nil {
		return "", err
	}
	outPath := opts.OutputPath
	if outPath == "" {
		outPath = workspace.NewPaths(inputPath).Restored(format)
	}

	t := scramble.New(
		scramble.WithLogger(logger),
		scramble.WithWorkers(settings.Workers),
	)
	restored, err := t.Decrypt(m, k)
	if err != nil {
		return "", err
	}

	if err := imageio.EncodeFile(outPath, restored, format); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	logger.Info("🖼️ Restored image written", "path", outPath, "format", format)
	return outPath, nil
}

// outputFormat picks the format to write: explicit, then the output path's
// extension, then the source format, then PNG. Lossy choices are refused
// explicitly and silently replaced by PNG only when inherited from the source.
func outputFormat(explicit, outputPath, source string) (string, error) {
	if explicit != "" {
		explicit = strings.ToLower(strings.TrimSpace(explicit))
		if !imageio.IsLossless(explicit) {
			return "", fmt.Errorf("%w: %s", pxerrors.ErrUnsupportedFormat, explicit)
		}
		return explicit, nil
	}
	if outputPath != "" {
		if f := imageio.FormatFromPath(outputPath); f != "" {
			if !imageio.IsLossless(f) {
				return "", fmt.Errorf("%w: %s", pxerrors.ErrUnsupportedFormat, f)
			}
			return f, nil
		}
	}
	if imageio.IsLossless(source) {
		return source, nil
	}
	return imageio.DefaultFormat, nil
}

func settingsOrDefault(s *config.Settings) (*config.Settings, error) {
	if s != nil {
		return s, s.Validate()
	}
	return config.Resolve(config.Overrides{}, nil)
}

func loggerOrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
