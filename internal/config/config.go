package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	ProjectRoot  string `toml:"project_root"`
	OutputDir    string `toml:"output_dir"`
	SubtitleFile string `toml:"subtitle_file"`
	SceneFile    string `toml:"scene_file"`
	TimelineFile string `toml:"timeline_file"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
}

// Export contains the per-run export behaviour.
type Export struct {
	Locale           string   `toml:"locale"`
	Subproject       string   `toml:"subproject"`
	SequenceName     string   `toml:"sequence_name"`
	SequenceIndex    int      `toml:"sequence_index"`
	DefaultGapFrames int      `toml:"default_gap_frames"`
	DefaultFrameRate float64  `toml:"default_frame_rate"`
	ZeroPad          bool     `toml:"zero_pad"`
	PadWidth         int      `toml:"pad_width"`
	AudioExtensions  []string `toml:"audio_extensions"`
	ReservedDir      string   `toml:"reserved_dir"`
	MappingFile      string   `toml:"mapping_file"`
	SyncMappingOnly  bool     `toml:"sync_mapping_only"`
}

// Selection holds the configured clip selection. At most one criterion is
// effective per run; see the selection package for precedence.
type Selection struct {
	Scenes        []int `toml:"scenes"`
	SceneStart    *int  `toml:"scene_start"`
	SceneEnd      *int  `toml:"scene_end"`
	SourceIndices []int `toml:"source_indices"`
	SourceStart   *int  `toml:"source_start"`
	SourceEnd     *int  `toml:"source_end"`
}

// Encoder configures the encode sink.
type Encoder struct {
	Kind         string `toml:"kind"`
	FFmpegBinary string `toml:"ffmpeg_binary"`
	SourceMedia  string `toml:"source_media"`
	Extension    string `toml:"extension"`
	SampleRate   int    `toml:"sample_rate"`
	Channels     int    `toml:"channels"`
}

// API configures the HTTP bridge used by host panels.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Watch configures the annotation watcher.
type Watch struct {
	SettleMillis int `toml:"settle_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipexport.
//
// Configuration sections by subsystem:
//   - Paths: project root, output, annotation, timeline, and state locations
//   - Export: locale, sequence lookup, naming, and mapping behaviour
//   - Selection: scene and source-index selection
//   - Encoder: ffmpeg encode sink settings
//   - API: HTTP bridge bind address and token
//   - Watch: annotation watcher settle window
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Export    Export    `toml:"export"`
	Selection Selection `toml:"selection"`
	Encoder   Encoder   `toml:"encoder"`
	API       API       `toml:"api"`
	Watch     Watch     `toml:"watch"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipexport/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()
	cfg.applyEnvDefaults()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipexport.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used by the encode sink.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Encoder.FFmpegBinary); bin != "" {
		return bin
	}
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
