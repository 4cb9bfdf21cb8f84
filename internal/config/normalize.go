package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeExport(); err != nil {
		return err
	}
	c.normalizeEncoder()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.ProjectRoot) == "" {
		if value, ok := os.LookupEnv("CLIPEXPORT_PROJECT_ROOT"); ok {
			c.Paths.ProjectRoot = strings.TrimSpace(value)
		}
	}
	fields := []struct {
		key   string
		value *string
	}{
		{"paths.project_root", &c.Paths.ProjectRoot},
		{"paths.output_dir", &c.Paths.OutputDir},
		{"paths.subtitle_file", &c.Paths.SubtitleFile},
		{"paths.scene_file", &c.Paths.SceneFile},
		{"paths.timeline_file", &c.Paths.TimelineFile},
		{"paths.state_dir", &c.Paths.StateDir},
		{"paths.log_dir", &c.Paths.LogDir},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

// applyEnvDefaults seeds values that the environment may supply before the
// config file is decoded over them, so an explicit file setting still wins.
func (c *Config) applyEnvDefaults() {
	if value, ok := os.LookupEnv("CLIPEXPORT_LOCALE"); ok && strings.TrimSpace(value) != "" {
		c.Export.Locale = strings.TrimSpace(value)
	}
}

func (c *Config) normalizeExport() error {
	if strings.TrimSpace(c.Export.Locale) == "" {
		if value, ok := os.LookupEnv("CLIPEXPORT_LOCALE"); ok {
			c.Export.Locale = value
		}
	}
	locale, err := CanonicalLocale(c.Export.Locale)
	if err != nil {
		return fmt.Errorf("export.locale: %w", err)
	}
	c.Export.Locale = locale
	c.Export.Subproject = strings.Trim(strings.TrimSpace(c.Export.Subproject), `/\`)
	c.Export.SequenceName = strings.TrimSpace(c.Export.SequenceName)
	if c.Export.PadWidth <= 0 {
		c.Export.PadWidth = defaultPadWidth
	}
	if c.Export.DefaultFrameRate <= 0 {
		c.Export.DefaultFrameRate = defaultFrameRate
	}
	c.Export.AudioExtensions = normalizeExtensions(c.Export.AudioExtensions)
	if len(c.Export.AudioExtensions) == 0 {
		c.Export.AudioExtensions = DefaultAudioExtensions()
	}
	c.Export.ReservedDir = strings.TrimSpace(c.Export.ReservedDir)
	c.Export.MappingFile = strings.TrimSpace(c.Export.MappingFile)
	if c.Export.MappingFile == "" {
		c.Export.MappingFile = defaultMappingFile
	}
	return nil
}

func (c *Config) normalizeEncoder() {
	c.Encoder.Kind = strings.ToLower(strings.TrimSpace(c.Encoder.Kind))
	if c.Encoder.Kind == "" {
		c.Encoder.Kind = defaultEncoderKind
	}
	c.Encoder.FFmpegBinary = strings.TrimSpace(c.Encoder.FFmpegBinary)
	c.Encoder.SourceMedia = strings.TrimSpace(c.Encoder.SourceMedia)
	if c.Encoder.SourceMedia != "" {
		if expanded, err := expandPath(c.Encoder.SourceMedia); err == nil {
			c.Encoder.SourceMedia = expanded
		}
	}
	if ext := normalizeExtensions([]string{c.Encoder.Extension}); len(ext) == 1 {
		c.Encoder.Extension = ext[0]
	} else {
		c.Encoder.Extension = defaultEncoderExtension
	}
	// Cleanup only sees files with a known audio extension.
	c.Export.AudioExtensions = normalizeExtensions(append(c.Export.AudioExtensions, c.Encoder.Extension))
	if c.Encoder.SampleRate <= 0 {
		c.Encoder.SampleRate = defaultSampleRate
	}
	if c.Encoder.Channels <= 0 {
		c.Encoder.Channels = defaultChannels
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("CLIPEXPORT_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
	if c.Watch.SettleMillis <= 0 {
		c.Watch.SettleMillis = defaultWatchSettleMS
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// CanonicalLocale reduces a locale tag to its lowercase base language, the
// form used in resource directory names ("zh-CN" becomes "zh").
func CanonicalLocale(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultLocale, nil
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", value, err)
	}
	base, _ := tag.Base()
	return strings.ToLower(base.String()), nil
}

// LocaleDisplayName returns the English name of a locale tag, or the tag
// itself when it cannot be parsed.
func LocaleDisplayName(value string) string {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return value
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return value
}

func normalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
