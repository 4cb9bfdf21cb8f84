package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteOutputs creates a placeholder file for each name below dir, standing
// in for clips encoded by an earlier run. Names may include subdirectories.
// The returned paths follow the order of names.
func WriteOutputs(t testing.TB, dir string, names ...string) []string {
	t.Helper()

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte("previous export"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		paths = append(paths, path)
	}
	return paths
}
