// Package compress registers the compression operations usable in a key
// file chain: gzip, bzip2 and zstd.
package compress

import (
	"fmt"
	"io"

	"github.com/provide-io/pixelroll/pkg/keyfile/operations"
)

// readLimited drains r, failing once more than operations.MaxPayloadSize
// bytes come out of it.
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, operations.MaxPayloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > operations.MaxPayloadSize {
		return nil, fmt.Errorf("%w: more than %d bytes", operations.ErrPayloadTooLarge, operations.MaxPayloadSize)
	}
	return data, nil
}
