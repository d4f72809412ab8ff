package keyfile

import (
	"fmt"
	"os"

	"github.com/provide-io/pixelroll/internal/workspace"
	"github.com/provide-io/pixelroll/pkg/scramble/key"
)

// WriteFile encodes k with codec and writes it to path with perm.
func WriteFile(path string, k *key.Key, codec string, perm os.FileMode) error {
	data, err := Marshal(k, codec)
	if err != nil {
		return err
	}
	return workspace.WriteFileAtomic(path, append(data, '\n'), perm)
}

// ReadFile loads and validates a key file.
func ReadFile(path string) (*key.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	k, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return k, nil
}
