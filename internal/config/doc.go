// Package config loads, normalizes, and validates clipexport configuration.
//
// Configuration lives in TOML. Load resolves the file location (explicit
// path, ~/.config/clipexport/config.toml, or ./clipexport.toml), layers it over
// Default(), expands paths, applies environment fallbacks, and validates the
// result. The layout helpers derive the voiceover output directory, subtitle
// file, and mapping path from project root, subproject, and locale so callers
// never rebuild those paths by hand.
package config
