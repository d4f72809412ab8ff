// Package workspace resolves output locations and writes result files.
package workspace

import (
	"path/filepath"
	"strings"
)

const (
	ScrambledSuffix = ".scrambled"
	RestoredSuffix  = ".restored"
	KeySuffix       = ".key.txt"
)

// Paths derives default output names from an input image path
type Paths struct {
	dir  string
	stem string
}

// NewPaths creates Paths for inputPath. Known result suffixes are stripped
// so "photo.scrambled.png" restores to "photo.restored.png".
func NewPaths(inputPath string) *Paths {
	dir := filepath.Dir(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	stem = strings.TrimSuffix(stem, ScrambledSuffix)
	stem = strings.TrimSuffix(stem, RestoredSuffix)

	return &Paths{
		dir:  dir,
		stem: stem,
	}
}

// Scrambled returns the encrypted image path for the given format
func (p *Paths) Scrambled(format string) string {
	return filepath.Join(p.dir, p.stem+ScrambledSuffix+"."+format)
}

// Restored returns the decrypted image path for the given format
func (p *Paths) Restored(format string) string {
	return filepath.Join(p.dir, p.stem+RestoredSuffix+"."+format)
}

// Key returns the key file path
func (p *Paths) Key() string {
	return filepath.Join(p.dir, p.stem+KeySuffix)
}
