package main

import (
	"github.com/spf13/cobra"

	"clipexport/internal/config"
)

// selectionFlags binds the selection overrides shared by export, scenes,
// and plan. Any set flag replaces the configured selection as a whole.
type selectionFlags struct {
	scenes      []int
	sceneStart  int
	sceneEnd    int
	sources     []int
	sourceStart int
	sourceEnd   int
}

func (f *selectionFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntSliceVar(&f.scenes, "scenes", nil, "Scene numbers to export (e.g. 1,3)")
	flags.IntVar(&f.sceneStart, "scene-start", 0, "First scene of a scene range")
	flags.IntVar(&f.sceneEnd, "scene-end", 0, "Last scene of a scene range")
	flags.IntSliceVar(&f.sources, "sources", nil, "Source indices to export (e.g. 45,48)")
	flags.IntVar(&f.sourceStart, "source-start", 0, "First source index of a range")
	flags.IntVar(&f.sourceEnd, "source-end", 0, "Last source index of a range")
}

// override returns the selection requested on the command line, or nil
// when no selection flag was set.
func (f *selectionFlags) override(cmd *cobra.Command) *config.Selection {
	flags := cmd.Flags()
	sel := config.Selection{
		Scenes:        f.scenes,
		SourceIndices: f.sources,
	}
	changed := flags.Changed("scenes") || flags.Changed("sources")
	intFlag := func(name string, value int, target **int) {
		if flags.Changed(name) {
			v := value
			*target = &v
			changed = true
		}
	}
	intFlag("scene-start", f.sceneStart, &sel.SceneStart)
	intFlag("scene-end", f.sceneEnd, &sel.SceneEnd)
	intFlag("source-start", f.sourceStart, &sel.SourceStart)
	intFlag("source-end", f.sourceEnd, &sel.SourceEnd)
	if !changed {
		return nil
	}
	return &sel
}

// applySelection returns a copy of cfg with the command line selection applied.
func applySelection(cfg *config.Config, sel *config.Selection) *config.Config {
	out := *cfg
	if sel != nil {
		out.Selection = *sel
	}
	return &out
}
