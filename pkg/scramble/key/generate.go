package key

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
)

// Option customizes Generate.
type Option func(*Key)

func WithAlpha(alpha int) Option {
	return func(k *Key) { k.Alpha = alpha }
}

func WithIterations(n int) Option {
	return func(k *Key) { k.Iterations = n }
}

func WithScheme(s Scheme) Option {
	return func(k *Key) { k.Scheme = s }
}

// NewRand returns a generator seeded from the operating system's entropy
// source. Nothing about the seed is kept outside the generator.
func NewRand() *rand.Rand {
	var seed [32]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		// crypto/rand.Read does not fail on supported platforms
		panic(fmt.Sprintf("reading entropy: %v", err))
	}
	return rand.New(rand.NewChaCha8(seed))
}

// NewSeededRand returns a deterministic generator for tests and reproducible runs.
func NewSeededRand(seed uint64) *rand.Rand {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:], seed)
	return rand.New(rand.NewChaCha8(s))
}

// Generate draws a fresh key for a rows × cols image. Row entries are drawn
// first, then column entries, each uniform in [0, 2^alpha - 1).
// A nil rng is replaced with NewRand().
func Generate(rng *rand.Rand, rows, cols int, opts ...Option) (*Key, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: cannot generate a key for %dx%d", pxerrors.ErrUnsupportedImage, rows, cols)
	}

	k := &Key{
		Iterations: DefaultIterations,
		Alpha:      DefaultAlpha,
		Scheme:     SchemeLegacy,
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.Alpha < 1 || k.Alpha > MaxAlpha {
		return nil, fmt.Errorf("%w: alpha must be in 1..%d, got %d", pxerrors.ErrMalformedKey, MaxAlpha, k.Alpha)
	}
	if k.Iterations <= 0 {
		return nil, fmt.Errorf("%w: iterations must be positive, got %d", pxerrors.ErrMalformedKey, k.Iterations)
	}
	if _, err := ParseScheme(string(k.Scheme)); err != nil {
		return nil, err
	}

	if rng == nil {
		rng = NewRand()
	}

	// The upper bound is exclusive and one below 2^alpha.
	bound := (1 << k.Alpha) - 1
	draw := func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = rng.IntN(bound)
		}
		return out
	}

	k.RowKey = draw(rows)
	k.ColKey = draw(cols)
	return k, nil
}
