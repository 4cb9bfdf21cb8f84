package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipexport/internal/config"
	"clipexport/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

var fourClips = []testsupport.TimelineClip{
	{SourceName: "44_a.wav", Seconds: 1},
	{SourceName: "45_b.wav", Seconds: 1},
	{SourceName: "48_c.wav", Seconds: 1},
	{SourceName: "51_d.wav", Seconds: 1},
}

func setupCLITestEnv(t *testing.T, withTimeline bool) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("CLIPEXPORT_PROJECT_ROOT", "")

	configPath := filepath.Join(base, "clipexport.toml")
	writeTestConfig(t, configPath, cfg)

	if withTimeline {
		testsupport.WriteTimeline(t, filepath.Join(cfg.Paths.ProjectRoot, "timeline.json"),
			testsupport.NewSequence("processed", "/project/en/", 30, fourClips...))
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func (e *cliTestEnv) outputDir(t *testing.T) string {
	t.Helper()
	dir, err := e.cfg.OutputDirectory()
	if err != nil {
		t.Fatalf("OutputDirectory: %v", err)
	}
	return dir
}

func (e *cliTestEnv) writeSubtitles(t *testing.T, content string) {
	t.Helper()
	path, err := e.cfg.SubtitlePath()
	if err != nil {
		t.Fatalf("SubtitlePath: %v", err)
	}
	testsupport.WriteText(t, path, content)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nproject_root = %q\nstate_dir = %q\nlog_dir = %q\n\n[export]\nlocale = %q\n\n[encoder]\nkind = \"none\"\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.ProjectRoot,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Export.Locale,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
