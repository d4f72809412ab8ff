package pkg

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/pixelroll/pkg/imageio"
	"github.com/provide-io/pixelroll/pkg/keyfile"
	"github.com/provide-io/pixelroll/pkg/scramble/key"
)

// KeyReport describes a key file and, optionally, how it matches an image.
type KeyReport struct {
	Path        string
	Codec       string
	Rows        int
	Cols        int
	Iterations  int
	Alpha       int
	Scheme      key.Scheme
	Fingerprint string

	ImagePath string
	Problems  []string
}

// OK reports whether every check passed
func (r *KeyReport) OK() bool {
	return len(r.Problems) == 0
}

// InspectKey loads the key at keyPath. When imagePath is non-empty the key is
// also checked against that scrambled image's shape and fingerprint; failed
// checks are collected in the report rather than returned as errors.
func InspectKey(keyPath, imagePath string, logger hclog.Logger) (*KeyReport, error) {
	logger = loggerOrNull(logger)

	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	k, err := keyfile.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyPath, err)
	}

	report := &KeyReport{
		Path:        keyPath,
		Codec:       keyfile.Codec(data),
		Rows:        len(k.RowKey),
		Cols:        len(k.ColKey),
		Iterations:  k.Iterations,
		Alpha:       k.EffectiveAlpha(),
		Scheme:      k.EffectiveScheme(),
		Fingerprint: k.Fingerprint,
	}
	logger.Info("✓ Key parsed", "codec", report.Codec, "rows", report.Rows, "cols", report.Cols)

	if imagePath == "" {
		return report, nil
	}
	report.ImagePath = imagePath

	m, _, err := imageio.DecodeFile(imagePath)
	if err != nil {
		return nil, err
	}

	if err := k.CheckShape(m.Rows, m.Cols); err != nil {
		report.Problems = append(report.Problems, fmt.Sprintf("shape: %v", err))
		logger.Error("Shape check failed", "error", err)
	} else {
		logger.Info("✓ Shape matches", "shape", m.String())
	}

	if k.Fingerprint == "" {
		logger.Warn("Key has no fingerprint, skipping image check")
	} else if err := k.VerifyFingerprint(m.Pix); err != nil {
		report.Problems = append(report.Problems, fmt.Sprintf("fingerprint: %v", err))
		logger.Error("Fingerprint check failed", "error", err)
	} else {
		logger.Info("✓ Fingerprint matches")
	}

	return report, nil
}
