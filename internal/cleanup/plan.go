// Package cleanup plans and performs removal of previously exported clip
// files before a run re-exports them.
//
// Planning is pure: it works from a directory snapshot taken before any
// encode request so files written by the current run are never candidates.
// Full mode clears every audio file in the output directory except the
// reserved subdirectory; targeted mode only removes the files named after
// clips the current selection includes.
package cleanup

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"clipexport/internal/timeline"
)

// Mode selects the cleanup strategy.
type Mode string

const (
	ModeFull     Mode = "full"
	ModeTargeted Mode = "targeted"
)

// Entry is one item of the output directory snapshot.
type Entry struct {
	Name  string
	IsDir bool
}

// Naming describes how clip outputs are named.
type Naming struct {
	ZeroPad     bool
	PadWidth    int
	Extensions  []string
	ReservedDir string
}

// Candidate is one file planned for removal.
type Candidate struct {
	Name string
	Path string
	// ClipIndex is the clip whose output this file is; 0 in full mode.
	ClipIndex int
}

// Plan lists the files a cleanup pass will remove.
type Plan struct {
	Dir        string
	Mode       Mode
	Candidates []Candidate
	// Preserved lists reserved directories left untouched.
	Preserved []string
	// Ignored lists entries outside the cleanup scope (full mode only).
	Ignored []string
}

// Snapshot reads the top level of dir. A missing directory yields an empty
// snapshot.
func Snapshot(dir string) ([]Entry, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{Name: item.Name(), IsDir: item.IsDir()})
	}
	return entries, nil
}

// PlanCleanup computes removal candidates. decisions must align with clips;
// it is only consulted in targeted mode.
func PlanCleanup(dir string, mode Mode, clips []timeline.Clip, decisions []bool, entries []Entry, naming Naming) Plan {
	plan := Plan{Dir: dir, Mode: mode}
	if mode == ModeFull {
		planFull(&plan, entries, naming)
		return plan
	}

	files := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if !entry.IsDir {
			files[entry.Name] = struct{}{}
		}
	}
	for i, clip := range clips {
		if i >= len(decisions) || !decisions[i] {
			continue
		}
		stem := clip.OutputName(naming.ZeroPad, naming.PadWidth)
		for _, ext := range naming.Extensions {
			name := stem + ext
			if _, ok := files[name]; !ok {
				continue
			}
			plan.Candidates = append(plan.Candidates, Candidate{Name: name, Path: filepath.Join(dir, name), ClipIndex: clip.Index})
		}
	}
	return plan
}

func planFull(plan *Plan, entries []Entry, naming Naming) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, entry := range sorted {
		if entry.IsDir {
			if naming.ReservedDir != "" && strings.EqualFold(entry.Name, naming.ReservedDir) {
				plan.Preserved = append(plan.Preserved, entry.Name)
			} else {
				plan.Ignored = append(plan.Ignored, entry.Name)
			}
			continue
		}
		if !HasExtension(entry.Name, naming.Extensions) {
			plan.Ignored = append(plan.Ignored, entry.Name)
			continue
		}
		plan.Candidates = append(plan.Candidates, Candidate{Name: entry.Name, Path: filepath.Join(plan.Dir, entry.Name)})
	}
}

// HasExtension reports whether name ends in one of extensions, ignoring case.
func HasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, candidate := range extensions {
		if strings.ToLower(candidate) == ext {
			return true
		}
	}
	return false
}
