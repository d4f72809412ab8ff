package errors

import "errors"

var (
	// Key errors 🔑
	ErrShapeMismatch       = errors.New("❌ key shape does not match image")
	ErrMalformedKey        = errors.New("❌ malformed key")
	ErrFingerprintMismatch = errors.New("❌ image fingerprint does not match key")

	// Image errors 🖼️
	ErrUnsupportedImage  = errors.New("❌ unsupported image")
	ErrUnsupportedFormat = errors.New("❌ unsupported image format")

	// Pipeline errors 🔀
	ErrUnknownStage = errors.New("❌ unknown transform stage")
)
