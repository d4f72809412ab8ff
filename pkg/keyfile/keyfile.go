// Package keyfile serializes scramble keys into a transportable text form.
//
// The raw encoding is base64 of the JSON key record, which is what earlier
// releases wrote. Compressed encodings carry their codec in a short header:
//
//	pxk1:<codec>:<base64 payload>
//
// where <codec> names a byte-operation chain such as "gzip" or "bzip2|zstd".
package keyfile

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/provide-io/pixelroll/pkg/keyfile/operations"
	_ "github.com/provide-io/pixelroll/pkg/keyfile/operations/compress"
	pxerrors "github.com/provide-io/pixelroll/pkg/scramble/errors"
	"github.com/provide-io/pixelroll/pkg/scramble/key"
)

const (
	// EnvelopePrefix marks compressed key files.
	EnvelopePrefix = "pxk1:"

	// CodecRaw is the uncompressed encoding.
	CodecRaw = "raw"
)

// record is the JSON shape of a key. The capitalized aliases are accepted
// on read so key files from the original web tool still load.
type record struct {
	RowKey      []int  `json:"row_key,omitempty"`
	ColKey      []int  `json:"col_key,omitempty"`
	Iterations  *int   `json:"iterations,omitempty"`
	Alpha       int    `json:"alpha,omitempty"`
	Scheme      string `json:"scheme,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	LegacyRowKey     []int `json:"Kr,omitempty"`
	LegacyColKey     []int `json:"Kc,omitempty"`
	LegacyIterations *int  `json:"iter_max,omitempty"`
}

func (r *record) toKey() (*key.Key, error) {
	scheme, err := key.ParseScheme(r.Scheme)
	if err != nil {
		return nil, err
	}
	k := &key.Key{
		RowKey:      r.RowKey,
		ColKey:      r.ColKey,
		Alpha:       r.Alpha,
		Scheme:      scheme,
		Fingerprint: r.Fingerprint,
	}
	if k.RowKey == nil {
		k.RowKey = r.LegacyRowKey
	}
	if k.ColKey == nil {
		k.ColKey = r.LegacyColKey
	}

	iterations := r.Iterations
	if iterations == nil {
		iterations = r.LegacyIterations
	}
	if iterations == nil {
		return nil, fmt.Errorf("%w: missing iterations", pxerrors.ErrMalformedKey)
	}
	k.Iterations = *iterations

	if k.RowKey == nil {
		return nil, fmt.Errorf("%w: missing row_key", pxerrors.ErrMalformedKey)
	}
	if k.ColKey == nil {
		return nil, fmt.Errorf("%w: missing col_key", pxerrors.ErrMalformedKey)
	}

	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

// MarshalJSON returns the JSON key record.
func MarshalJSON(k *key.Key) ([]byte, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	iterations := k.Iterations
	scheme := string(k.Scheme)
	if k.EffectiveScheme() == key.SchemeLegacy {
		scheme = ""
	}
	return json.Marshal(&record{
		RowKey:      k.RowKey,
		ColKey:      k.ColKey,
		Iterations:  &iterations,
		Alpha:       k.Alpha,
		Scheme:      scheme,
		Fingerprint: k.Fingerprint,
	})
}

// UnmarshalJSON parses and validates a JSON key record.
func UnmarshalJSON(data []byte) (*key.Key, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var r record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", pxerrors.ErrMalformedKey, err)
	}
	return r.toKey()
}

// Marshal encodes k with the named codec ("raw", "gzip", "bzip2", "zstd" or
// a "|" separated chain of them).
func Marshal(k *key.Key, codec string) ([]byte, error) {
	packed, err := operations.StringToOperations(codec)
	if err != nil {
		return nil, err
	}

	payload, err := MarshalJSON(k)
	if err != nil {
		return nil, err
	}

	if packed == 0 {
		return []byte(base64.StdEncoding.EncodeToString(payload)), nil
	}

	compressed, err := operations.ApplyChain(payload, operations.UnpackOperations(packed))
	if err != nil {
		return nil, fmt.Errorf("encoding key: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(EnvelopePrefix)
	buf.WriteString(operations.OperationsToString(packed))
	buf.WriteByte(':')
	buf.WriteString(base64.StdEncoding.EncodeToString(compressed))
	return buf.Bytes(), nil
}

// Unmarshal decodes any encoding produced by Marshal. Plain JSON is also
// accepted. Every failure wraps ErrMalformedKey.
func Unmarshal(data []byte) (*key.Key, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("%w: empty key file", pxerrors.ErrMalformedKey)
	}

	if strings.HasPrefix(text, "{") {
		return UnmarshalJSON([]byte(text))
	}

	codec := CodecRaw
	body := text
	if rest, ok := strings.CutPrefix(text, EnvelopePrefix); ok {
		var found bool
		codec, body, found = strings.Cut(rest, ":")
		if !found {
			return nil, fmt.Errorf("%w: envelope without codec", pxerrors.ErrMalformedKey)
		}
	}

	packed, err := operations.StringToOperations(codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pxerrors.ErrMalformedKey, err)
	}

	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding base64: %v", pxerrors.ErrMalformedKey, err)
	}

	payload, err := operations.ReverseChain(raw, operations.UnpackOperations(packed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pxerrors.ErrMalformedKey, err)
	}

	return UnmarshalJSON(payload)
}

// Codec reports the codec name of an encoded key without decoding it.
func Codec(data []byte) string {
	text := strings.TrimSpace(string(data))
	if rest, ok := strings.CutPrefix(text, EnvelopePrefix); ok {
		if codec, _, found := strings.Cut(rest, ":"); found {
			return codec
		}
	}
	return CodecRaw
}
