package selection

import (
	"errors"
	"fmt"
	"log/slog"

	"clipexport/internal/annotation"
	"clipexport/internal/logging"
	"clipexport/internal/timeline"
)

// Options carries the scene annotation text for scene selection.
type Options struct {
	// SceneText is the scene annotation content. SceneTextOK is false when
	// the file could not be read.
	SceneText   string
	SceneTextOK bool
	ScenePath   string
	Logger      *slog.Logger
}

// Resolution is the per-run selection outcome.
type Resolution struct {
	Decisions []bool
	Criterion Criterion
	// SceneTable is populated when scene selection succeeded.
	SceneTable annotation.SceneTable
	// SceneFallback is set when scenes were requested but selection fell
	// back to source mode.
	SceneFallback bool
	Included      int
	Skipped       int
}

// SourceIndices returns the effective index list for index-based criteria.
func (r Resolution) SourceIndices() []int {
	return r.Criterion.Indices
}

// Resolve applies selection precedence to clips. The only error is a
// *annotation.ContinuityError from scene parsing, which must stop the run
// before any file is touched.
func Resolve(clips []timeline.Clip, criteria Criteria, opts Options) (Resolution, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	var res Resolution
	criterion, table, err := chooseCriterion(criteria, opts, logger)
	if err != nil {
		return res, err
	}
	res.Criterion = criterion
	res.SceneTable = table
	res.SceneFallback = criteria.HasScenes() && criterion.Kind != KindScenes
	res.Decisions = Decide(clips, criterion)
	for _, include := range res.Decisions {
		if include {
			res.Included++
		} else {
			res.Skipped++
		}
	}

	logger.Info("selection resolved",
		logging.Args(append(logging.DecisionAttrs("clip_selection", string(criterion.Kind), criterion.Describe()),
			logging.Int("included", res.Included),
			logging.Int("skipped", res.Skipped),
		)...)...,
	)
	return res, nil
}

// Decide evaluates criterion against every clip in order.
func Decide(clips []timeline.Clip, criterion Criterion) []bool {
	decisions := make([]bool, len(clips))
	for i, clip := range clips {
		decisions[i] = criterion.Includes(clip)
	}
	return decisions
}

func chooseCriterion(criteria Criteria, opts Options, logger *slog.Logger) (Criterion, annotation.SceneTable, error) {
	if !criteria.HasScenes() {
		return SourceCriterion(criteria), nil, nil
	}

	targets := criteria.Scenes
	if len(targets) == 0 {
		targets = annotation.ExpandSceneRange(criteria.SceneStart, criteria.SceneEnd)
	}
	if len(targets) == 0 {
		warnSceneFallback(logger, "scene range is empty", opts.ScenePath, targets)
		return SourceCriterion(criteria), nil, nil
	}
	if !opts.SceneTextOK {
		warnSceneFallback(logger, "scene annotation file unavailable", opts.ScenePath, targets)
		return SourceCriterion(criteria), nil, nil
	}

	result, found, err := annotation.ParseSceneMarkers(opts.SceneText, targets)
	if err != nil {
		var contErr *annotation.ContinuityError
		if errors.As(err, &contErr) && contErr.Path == "" {
			contErr.Path = opts.ScenePath
		}
		logging.ErrorWithContext(logger, "scene numbering is not continuous", "scene_continuity",
			logging.String("path", opts.ScenePath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the [N] markers in the scene annotation file"),
		)
		return Criterion{}, nil, err
	}
	if !found {
		warnSceneFallback(logger, "no source markers under requested scenes", opts.ScenePath, targets)
		return SourceCriterion(criteria), nil, nil
	}
	return sceneCriterion(targets, result.SourceIndices), result.Scenes, nil
}

func warnSceneFallback(logger *slog.Logger, reason, path string, targets []int) {
	scenes := FormatInts(targets)
	if len(targets) > 12 {
		scenes = fmt.Sprintf("[%d..%d]", targets[0], targets[len(targets)-1])
	}
	logging.WarnWithContext(logger, "scene selection failed; falling back to source selection", "scene_fallback",
		logging.String("reason", reason),
		logging.String("path", path),
		logging.String("scenes", scenes),
		logging.String(logging.FieldErrorHint, "check [scN] and [N] markers in the scene annotation file"),
		logging.String(logging.FieldImpact, "clips are selected by source index settings instead"),
	)
}
