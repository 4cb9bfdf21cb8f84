// Package main hosts the clipexport CLI entrypoint and command graph.
//
// The Cobra command tree runs export passes, previews selection and cleanup,
// reports run history and environment health, watches the annotation files
// for changes, and serves the HTTP bridge used by host panels. Configuration
// resolution and logger setup live here so subcommands only deal with
// presentation; the work itself belongs to the internal packages.
package main
