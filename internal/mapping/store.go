package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var renameFile = os.Rename

// Write replaces the artifact at path. The content goes to a temporary file
// in the same directory first so readers never observe a partial document.
func Write(path string, a Artifact) error {
	dir, name := filepath.Split(path)
	if name == "" {
		return errors.New("mapping path has no file name")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create mapping directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp mapping: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(a.MarshalIndent()); err != nil {
		return fmt.Errorf("write temp mapping: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp mapping: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp mapping: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp mapping: %w", err)
	}
	if err := renameFile(tmpName, path); err != nil {
		return fmt.Errorf("replace mapping: %w", err)
	}
	return nil
}

// Load reads an artifact written by Write.
func Load(path string) (*Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file)
}

// Decode parses an artifact document.
func Decode(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	return &a, nil
}
