package config

import (
	"errors"
	"path/filepath"
	"strings"
)

// Resource directories below the project root.
const (
	VoiceoversDir = "voiceovers"
	SubtitlesDir  = "subtitles"
)

// ErrNoProjectRoot is returned when a layout path needs the project root but none is configured.
var ErrNoProjectRoot = errors.New("paths.project_root is not configured")

// Standalone reports whether the output directory is configured directly
// instead of being derived from the project root.
func (c *Config) Standalone() bool {
	return strings.TrimSpace(c.Paths.OutputDir) != ""
}

// OutputDirectory returns the voiceover output directory:
// {root}/voiceovers[/{subproject}]/{locale}, or paths.output_dir when set.
func (c *Config) OutputDirectory() (string, error) {
	if c.Standalone() {
		return c.Paths.OutputDir, nil
	}
	return c.resourceDir(VoiceoversDir)
}

// SubtitlePath returns the annotation file for the active locale:
// {root}/subtitles[/{subproject}]/{locale}.txt, or paths.subtitle_file when set.
func (c *Config) SubtitlePath() (string, error) {
	if strings.TrimSpace(c.Paths.SubtitleFile) != "" {
		return c.Paths.SubtitleFile, nil
	}
	dir, err := c.resourceParent(SubtitlesDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Export.Locale+".txt"), nil
}

// ScenePath returns the scene annotation file, defaulting to the subtitle file.
func (c *Config) ScenePath() (string, error) {
	if strings.TrimSpace(c.Paths.SceneFile) != "" {
		return c.Paths.SceneFile, nil
	}
	return c.SubtitlePath()
}

// TimelinePath returns the timeline export document, defaulting to
// {root}/timeline.json.
func (c *Config) TimelinePath() (string, error) {
	if strings.TrimSpace(c.Paths.TimelineFile) != "" {
		return c.Paths.TimelineFile, nil
	}
	root := strings.TrimSpace(c.Paths.ProjectRoot)
	if root == "" {
		return "", ErrNoProjectRoot
	}
	return filepath.Join(root, "timeline.json"), nil
}

// MappingPath returns the mapping artifact location inside the output directory.
func (c *Config) MappingPath() (string, error) {
	dir, err := c.OutputDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Export.MappingFile), nil
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "export.lock")
}

func (c *Config) resourceDir(resource string) (string, error) {
	dir, err := c.resourceParent(resource)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Export.Locale), nil
}

func (c *Config) resourceParent(resource string) (string, error) {
	root := strings.TrimSpace(c.Paths.ProjectRoot)
	if root == "" {
		return "", ErrNoProjectRoot
	}
	if c.Export.Subproject != "" {
		return filepath.Join(root, resource, c.Export.Subproject), nil
	}
	return filepath.Join(root, resource), nil
}
