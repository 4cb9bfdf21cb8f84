package config

import (
	"errors"
	"fmt"
	"strings"

	"clipexport/internal/annotation"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.DefaultGapFrames < 0 {
		return errors.New("export.default_gap_frames must be non-negative")
	}
	if c.Export.PadWidth > 9 {
		return errors.New("export.pad_width must be at most 9")
	}
	if c.Export.SequenceIndex < 0 {
		return errors.New("export.sequence_index must be non-negative")
	}
	if strings.ContainsAny(c.Export.MappingFile, `/\`) {
		return fmt.Errorf("export.mapping_file %q must be a file name, not a path", c.Export.MappingFile)
	}
	if strings.ContainsAny(c.Export.ReservedDir, `/\`) {
		return fmt.Errorf("export.reserved_dir %q must be a directory name", c.Export.ReservedDir)
	}
	return nil
}

func (c *Config) validateSelection() error {
	return c.Selection.Validate()
}

// Validate checks a selection on its own, so overrides supplied at run time
// get the same checks as the config file.
func (s Selection) Validate() error {
	for _, scene := range s.Scenes {
		if scene <= 0 || scene > annotation.MaxScene {
			return fmt.Errorf("selection.scenes: scene numbers must be between 1 and %d, got %d", annotation.MaxScene, scene)
		}
	}
	for _, bound := range []struct {
		key   string
		value *int
	}{
		{"selection.scene_start", s.SceneStart},
		{"selection.scene_end", s.SceneEnd},
	} {
		if bound.value != nil && (*bound.value <= 0 || *bound.value > annotation.MaxScene) {
			return fmt.Errorf("%s must be between 1 and %d, got %d", bound.key, annotation.MaxScene, *bound.value)
		}
	}
	if s.SceneStart != nil && s.SceneEnd != nil && *s.SceneStart > *s.SceneEnd {
		return fmt.Errorf("selection.scene_start (%d) must not exceed selection.scene_end (%d)", *s.SceneStart, *s.SceneEnd)
	}
	if s.SourceStart != nil && s.SourceEnd != nil && *s.SourceStart > *s.SourceEnd {
		return fmt.Errorf("selection.source_start (%d) must not exceed selection.source_end (%d)", *s.SourceStart, *s.SourceEnd)
	}
	return nil
}

func (c *Config) validateEncoder() error {
	switch c.Encoder.Kind {
	case EncoderFFmpeg, EncoderNone:
	default:
		return fmt.Errorf("encoder.kind must be %q or %q, got %q", EncoderFFmpeg, EncoderNone, c.Encoder.Kind)
	}
	for _, ext := range c.Export.AudioExtensions {
		if strings.EqualFold(ext, c.Encoder.Extension) {
			return nil
		}
	}
	return fmt.Errorf("encoder.extension %q must be listed in export.audio_extensions", c.Encoder.Extension)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
