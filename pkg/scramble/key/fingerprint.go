// Fingerprints bind a key to the scrambled image it produced.
//
// Format: "algorithm:hexvalue" (e.g., "sha256:c0ffee123...", "adler32:babe1337")
package key

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/adler32"
	"strings"

	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
)

// ChecksumAlgorithm represents supported fingerprint algorithms
type ChecksumAlgorithm int

const (
	ChecksumSHA256 ChecksumAlgorithm = iota
	ChecksumSHA512
	ChecksumAdler32
)

func (c ChecksumAlgorithm) String() string {
	switch c {
	case ChecksumSHA256:
		return "sha256"
	case ChecksumSHA512:
		return "sha512"
	case ChecksumAdler32:
		return "adler32"
	default:
		return "unknown"
	}
}

// ParseChecksum splits a prefixed checksum string. Unprefixed values are
// guessed from their length.
func ParseChecksum(checksumStr string) (ChecksumAlgorithm, string, error) {
	if algoName, value, ok := strings.Cut(checksumStr, ":"); ok {
		var algo ChecksumAlgorithm
		switch algoName {
		case "sha256":
			algo = ChecksumSHA256
		case "sha512":
			algo = ChecksumSHA512
		case "adler32":
			algo = ChecksumAdler32
		default:
			return ChecksumSHA256, "", fmt.Errorf("%w: unknown checksum algorithm %q", pxerrors.ErrMalformedKey, algoName)
		}
		return algo, value, nil
	}

	switch len(checksumStr) {
	case 128:
		return ChecksumSHA512, checksumStr, nil
	case 8:
		return ChecksumAdler32, checksumStr, nil
	default:
		return ChecksumSHA256, checksumStr, nil
	}
}

// CalculateChecksum returns the prefixed checksum of data.
func CalculateChecksum(data []byte, algorithm ChecksumAlgorithm) string {
	var h hash.Hash
	switch algorithm {
	case ChecksumSHA512:
		h = sha512.New()
	case ChecksumAdler32:
		h = adler32.New()
	default:
		algorithm = ChecksumSHA256
		h = sha256.New()
	}

	h.Write(data)
	return algorithm.String() + ":" + hex.EncodeToString(h.Sum(nil))
}

// VerifyChecksum reports whether data matches checksumStr.
func VerifyChecksum(data []byte, checksumStr string) (bool, error) {
	algo, expected, err := ParseChecksum(checksumStr)
	if err != nil {
		return false, err
	}

	actual := CalculateChecksum(data, algo)
	_, actualHex, _ := strings.Cut(actual, ":")
	return strings.EqualFold(actualHex, expected), nil
}

// Stamp records the fingerprint of the scrambled pixel bytes in the key.
func (k *Key) Stamp(pix []byte) {
	k.Fingerprint = CalculateChecksum(pix, ChecksumSHA256)
}

// VerifyFingerprint checks pix against the recorded fingerprint. Keys
// without a fingerprint always pass.
func (k *Key) VerifyFingerprint(pix []byte) error {
	if k.Fingerprint == "" {
		return nil
	}
	ok, err := VerifyChecksum(pix, k.Fingerprint)
	if err != nil {
		return err
	}
	if !ok {
		return pxerrors.ErrFingerprintMismatch
	}
	return nil
}
