// Package exporter runs one clip export pass end to end.
//
// Run reads the timeline and annotation files, resolves which clips the
// configured selection includes, clears stale outputs, hands included clips
// to the encode sink, and rewrites the mapping artifact. Every pass returns a
// Result; the only returned error is a scene continuity violation, which is
// raised before any file is removed or any encode is requested.
//
// Service wraps Run with the cross-process run lock, optional waiting on the
// encode queue, and run history.
package exporter
