// Package selection decides which clips an export run (re-)encodes.
//
// Exactly one criterion is active per run, chosen by precedence: scenes
// (resolved through the annotation file into source indices), an explicit
// source-index list, a source-index range, and finally everything. Clips whose
// source index cannot be derived are always included.
package selection
