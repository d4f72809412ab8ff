package pkg

import (
	"errors"
	"io/fs"

	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
)

// Process exit codes
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitIOError    = 3
	ExitKeyError   = 4
	ExitImageError = 5
)

var (
	// Usage errors 🚫
	ErrMissingKey = errors.New("❌ a key file is required")

	// Inspection errors 🔍
	ErrKeyMismatch = errors.New("❌ key does not match image")
)

// ExitCode maps an error returned by this package to a process exit code.
func ExitCode(err error) int {
	var pathErr *fs.PathError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrMissingKey):
		return ExitUsage
	case errors.Is(err, pxerrors.ErrMalformedKey),
		errors.Is(err, pxerrors.ErrShapeMismatch),
		errors.Is(err, pxerrors.ErrFingerprintMismatch),
		errors.Is(err, ErrKeyMismatch):
		return ExitKeyError
	case errors.Is(err, pxerrors.ErrUnsupportedImage),
		errors.Is(err, pxerrors.ErrUnsupportedFormat):
		return ExitImageError
	case errors.As(err, &pathErr):
		return ExitIOError
	default:
		return ExitFailure
	}
}
