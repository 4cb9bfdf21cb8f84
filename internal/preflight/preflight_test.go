package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipexport/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail for missing dir, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckOutputDirectoryMissingButCreatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voiceovers", "en")
	result := CheckOutputDirectory("out", path)
	if !result.Passed || !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "timeline.json")
	if err := os.WriteFile(present, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "en.txt")

	if r := CheckFile("timeline", present, false); !r.Passed {
		t.Fatalf("expected pass, got %+v", r)
	}
	if r := CheckFile("timeline", missing, false); r.Passed {
		t.Fatal("required file must fail when missing")
	}
	if r := CheckFile("annotations", missing, true); !r.Passed {
		t.Fatalf("optional file should pass when missing, got %+v", r)
	}
	if r := CheckFile("dir", dir, false); r.Passed {
		t.Fatal("directory must not pass as a file")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if r := CheckFreeSpace("free", filepath.Join(dir, "missing", "child"), 1); !r.Passed {
		t.Fatalf("expected pass, got %+v", r)
	}
	if r := CheckFreeSpace("free", dir, 1<<62); r.Passed {
		t.Fatalf("expected failure for an impossible threshold, got %+v", r)
	}
}

func TestRunAllFlagsMissingInputs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectRoot = base
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Encoder.Kind = config.EncoderFFmpeg

	results := RunAll(context.Background(), &cfg)
	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	if byName["Timeline"].Passed {
		t.Fatal("missing timeline must fail")
	}
	if !byName["Annotations"].Passed {
		t.Fatal("missing annotations must only be noted")
	}
	if byName["Source media"].Passed {
		t.Fatal("unset source media must fail for the ffmpeg encoder")
	}
	if !byName["Output directory"].Passed {
		t.Fatalf("output directory should be creatable, got %+v", byName["Output directory"])
	}
	if !Failed(results) {
		t.Fatal("Failed should report the failing checks")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[uint64]string{512: "512 B", 2048: "2.0 KiB", 5 << 30: "5.0 GiB"}
	for in, want := range cases {
		if got := formatBytes(in); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
