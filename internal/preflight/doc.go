// Package preflight provides readiness checks for the paths and binaries an
// export pass depends on.
//
// The CLI "clipexport doctor" command renders RunAll and CheckSystemDeps.
// Checks for optional inputs, such as the annotation file, pass with a note
// instead of failing, because a pass degrades gracefully without them.
package preflight
