package compat

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
)

// BatchFilename is where a full batch is written.
const BatchFilename = "results.json"

// SingleFilename returns the result file for a single-library run, derived
// from the last path element of the library name.
func SingleFilename(name string) string {
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		base = "library"
	}
	return fmt.Sprintf("result-%s.json", base)
}

// MarshalResults renders v (a Result or a slice of them) as indented JSON.
func MarshalResults(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteResults writes v to path as indented JSON.
func WriteResults(path string, v any) error {
	data, err := MarshalResults(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
