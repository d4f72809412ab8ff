// Package key defines the scramble key and its generator.
//
// A key holds one shift magnitude per image row and per image column plus
// the number of rounds. It is only meaningful for images of the exact shape
// it was generated for.
package key

import (
	"fmt"

	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
)

const (
	DefaultAlpha      = 8
	DefaultIterations = 10
	MaxAlpha          = 8 // XOR operands must fit in a channel byte
)

// Scheme selects which key sequence drives the row-rolling stage.
type Scheme string

const (
	// SchemeLegacy rolls rows with col_key, as every key produced before
	// schemes existed does. Requires rows <= cols.
	SchemeLegacy Scheme = "legacy"
	// SchemeMatched rolls rows with row_key and works for any shape.
	SchemeMatched Scheme = "matched"
)

// ParseScheme maps a user-facing name onto a Scheme. Empty means legacy.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case "", SchemeLegacy:
		return SchemeLegacy, nil
	case SchemeMatched:
		return SchemeMatched, nil
	default:
		return "", fmt.Errorf("%w: unknown scheme %q", pxerrors.ErrMalformedKey, s)
	}
}

// Key is immutable once generated; use Clone before modifying a copy.
type Key struct {
	RowKey      []int  `json:"row_key"`
	ColKey      []int  `json:"col_key"`
	Iterations  int    `json:"iterations"`
	Alpha       int    `json:"alpha,omitempty"`
	Scheme      Scheme `json:"scheme,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// EffectiveAlpha returns Alpha, defaulting keys that never recorded one.
func (k *Key) EffectiveAlpha() int {
	if k.Alpha == 0 {
		return DefaultAlpha
	}
	return k.Alpha
}

// EffectiveScheme returns Scheme, defaulting to legacy.
func (k *Key) EffectiveScheme() Scheme {
	if k.Scheme == "" {
		return SchemeLegacy
	}
	return k.Scheme
}

// RowRollKey is the sequence consumed by the row-rolling stage.
func (k *Key) RowRollKey() []int {
	if k.EffectiveScheme() == SchemeMatched {
		return k.RowKey
	}
	return k.ColKey
}

// ColRollKey is the sequence consumed by the column-rolling stage.
func (k *Key) ColRollKey() []int {
	return k.ColKey
}

// Validate checks field presence and value ranges.
func (k *Key) Validate() error {
	if k == nil {
		return fmt.Errorf("%w: nil key", pxerrors.ErrMalformedKey)
	}
	if k.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", pxerrors.ErrMalformedKey, k.Iterations)
	}
	alpha := k.EffectiveAlpha()
	if alpha < 1 || alpha > MaxAlpha {
		return fmt.Errorf("%w: alpha must be in 1..%d, got %d", pxerrors.ErrMalformedKey, MaxAlpha, alpha)
	}
	if _, err := ParseScheme(string(k.Scheme)); err != nil {
		return err
	}
	if k.Fingerprint != "" {
		if _, _, err := ParseChecksum(k.Fingerprint); err != nil {
			return err
		}
	}
	if len(k.RowKey) == 0 {
		return fmt.Errorf("%w: row_key is empty", pxerrors.ErrMalformedKey)
	}
	if len(k.ColKey) == 0 {
		return fmt.Errorf("%w: col_key is empty", pxerrors.ErrMalformedKey)
	}
	limit := 1 << alpha
	if err := checkRange("row_key", k.RowKey, limit); err != nil {
		return err
	}
	return checkRange("col_key", k.ColKey, limit)
}

func checkRange(field string, values []int, limit int) error {
	for i, v := range values {
		if v < 0 || v >= limit {
			return fmt.Errorf("%w: %s[%d]=%d outside [0, %d)", pxerrors.ErrMalformedKey, field, i, v, limit)
		}
	}
	return nil
}

// CheckShape verifies the key was generated for a rows × cols image and that
// every stage can index its key sequence for that shape.
func (k *Key) CheckShape(rows, cols int) error {
	if len(k.RowKey) != rows {
		return fmt.Errorf("%w: row_key has %d entries, image has %d rows", pxerrors.ErrShapeMismatch, len(k.RowKey), rows)
	}
	if len(k.ColKey) != cols {
		return fmt.Errorf("%w: col_key has %d entries, image has %d columns", pxerrors.ErrShapeMismatch, len(k.ColKey), cols)
	}
	if n := len(k.RowRollKey()); n < rows {
		return fmt.Errorf("%w: %s scheme rolls %d rows with %d col_key entries (use the %s scheme for tall images)",
			pxerrors.ErrShapeMismatch, SchemeLegacy, rows, n, SchemeMatched)
	}
	return nil
}

// Clone returns a deep copy.
func (k *Key) Clone() *Key {
	c := *k
	c.RowKey = append([]int(nil), k.RowKey...)
	c.ColKey = append([]int(nil), k.ColKey...)
	return &c
}
