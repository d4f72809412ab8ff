// Package scramble composes key generation, rolling and diffusion into the
// forward (encrypt) and inverse (decrypt) pipelines.
package scramble

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/pixelroll/pkg/scramble/key"
	"github.com/provide-io/pixelroll/pkg/scramble/matrix"
	"github.com/provide-io/pixelroll/pkg/scramble/operations"
	_ "github.com/provide-io/pixelroll/pkg/scramble/operations/diffuse"
	_ "github.com/provide-io/pixelroll/pkg/scramble/operations/roll"
)

// Transformer runs the scramble pipeline. It is safe for concurrent use;
// each call works on its own copy of the input matrix.
type Transformer struct {
	logger     hclog.Logger
	workers    int
	iterations int
	scheme     key.Scheme

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Transformer.
type Option func(*Transformer)

func WithLogger(logger hclog.Logger) Option {
	return func(t *Transformer) { t.logger = logger }
}

// WithRand injects the generator used for new keys.
func WithRand(rng *rand.Rand) Option {
	return func(t *Transformer) { t.rng = rng }
}

// WithWorkers bounds per-stage parallelism. Output does not depend on it.
func WithWorkers(n int) Option {
	return func(t *Transformer) { t.workers = n }
}

// WithIterations sets the round count recorded in newly generated keys.
func WithIterations(n int) Option {
	return func(t *Transformer) { t.iterations = n }
}

// WithScheme sets the scheme recorded in newly generated keys.
func WithScheme(s key.Scheme) Option {
	return func(t *Transformer) { t.scheme = s }
}

func New(opts ...Option) *Transformer {
	t := &Transformer{
		logger:     hclog.NewNullLogger(),
		workers:    1,
		iterations: key.DefaultIterations,
		scheme:     key.SchemeLegacy,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		t.rng = key.NewRand()
	}
	return t
}

// Encrypt generates a key for m and scrambles a copy of m with it. m is never
// modified.
func (t *Transformer) Encrypt(m *matrix.Matrix, alpha int) (*matrix.Matrix, *key.Key, error) {
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}

	t.mu.Lock()
	k, err := key.Generate(t.rng, m.Rows, m.Cols,
		key.WithAlpha(alpha),
		key.WithIterations(t.iterations),
		key.WithScheme(t.scheme),
	)
	t.mu.Unlock()
	if err != nil {
		return nil, nil, fmt.Errorf("generating key: %w", err)
	}

	t.logger.Debug("🔑 Generated key",
		"rows", len(k.RowKey),
		"cols", len(k.ColKey),
		"alpha", k.Alpha,
		"iterations", k.Iterations,
		"scheme", k.Scheme,
	)

	return t.EncryptWithKey(m, k)
}

// EncryptWithKey scrambles a copy of m with a caller-supplied key. k is not
// modified: the returned key is a copy stamped with the fingerprint of the
// result, so one key may scramble several same-shape images.
func (t *Transformer) EncryptWithKey(m *matrix.Matrix, k *key.Key) (*matrix.Matrix, *key.Key, error) {
	if err := t.check(m, k); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	out, err := t.run(m.Clone(), k, "encrypt", operations.ApplyChain)
	if err != nil {
		return nil, nil, err
	}
	stamped := k.Clone()
	stamped.Stamp(out.Pix)

	t.logger.Info("🔒 Encrypted image",
		"shape", out.String(),
		"rounds", k.Iterations,
		"duration", time.Since(start),
	)
	return out, stamped, nil
}

// Decrypt restores the matrix that produced m under k. m is never modified.
func (t *Transformer) Decrypt(m *matrix.Matrix, k *key.Key) (*matrix.Matrix, error) {
	if err := t.check(m, k); err != nil {
		return nil, err
	}
	if err := k.VerifyFingerprint(m.Pix); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := t.run(m.Clone(), k, "decrypt", operations.ReverseChain)
	if err != nil {
		return nil, err
	}

	t.logger.Info("🔓 Decrypted image",
		"shape", out.String(),
		"rounds", k.Iterations,
		"duration", time.Since(start),
	)
	return out, nil
}

func (t *Transformer) check(m *matrix.Matrix, k *key.Key) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := k.Validate(); err != nil {
		return err
	}
	return k.CheckShape(m.Rows, m.Cols)
}

type chainFunc func(*matrix.Matrix, *key.Key, []uint8, operations.Options) (*matrix.Matrix, error)

// run executes k.Iterations rounds on the working copy it owns.
func (t *Transformer) run(work *matrix.Matrix, k *key.Key, direction string, chain chainFunc) (*matrix.Matrix, error) {
	opts := operations.Options{Workers: t.workers}

	for round := 1; round <= k.Iterations; round++ {
		t.logger.Trace("🔁 Round", "direction", direction, "round", round, "of", k.Iterations)

		var err error
		work, err = chain(work, k, operations.Round, opts)
		if err != nil {
			return nil, fmt.Errorf("%s round %d: %w", direction, round, err)
		}
	}
	return work, nil
}
