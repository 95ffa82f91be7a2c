package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"orbduel/internal/sim"
)

// ErrMalformedConfig marks battle documents that fail to parse or validate.
var ErrMalformedConfig = errors.New("config: malformed battle document")

// Load reads, decodes, and validates a battle document from disk. Relative
// asset paths inside the document resolve against its directory.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed loading %s: %w", path, err)
	}
	doc, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	doc.baseDir = filepath.Dir(path)
	return doc, nil
}

// Parse decodes and validates a battle document. name labels errors; pass
// the source path when there is one. Unknown keys are rejected so a typoed
// field can never silently fall back to a default.
func Parse(data []byte, name string) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s is empty", ErrMalformedConfig, name)
		}
		if errors.Is(err, sim.ErrInvalidSeed) {
			return nil, fmt.Errorf("config: %s: %w", name, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedConfig, name, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &doc, nil
}

func (d *Document) resolvePath(p string) string {
	if p == "" || d.baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.baseDir, p)
}

// AudioOverrides returns the cue override map with file paths resolved
// against the document directory.
func (d *Document) AudioOverrides() map[string]string {
	if d == nil || len(d.Audio.Overrides) == 0 {
		return nil
	}
	out := make(map[string]string, len(d.Audio.Overrides))
	for cue, path := range d.Audio.Overrides {
		out[cue] = d.resolvePath(path)
	}
	return out
}
