package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipexport/internal/annotation"
	"clipexport/internal/cleanup"
	"clipexport/internal/config"
	"clipexport/internal/encode"
	"clipexport/internal/logging"
	"clipexport/internal/mapping"
	"clipexport/internal/selection"
	"clipexport/internal/timeline"
	"clipexport/internal/timing"
)

// Request is the input to Run.
type Request struct {
	Config *config.Config
	// Sink receives included clips. When nil, NewSink builds one from the
	// encoder configuration. Dry runs always use an in-memory recorder.
	Sink   encode.Sink
	Logger *slog.Logger
	RunID  string
	DryRun bool
	Now    func() time.Time
}

type input struct {
	sequence    *timeline.Sequence
	method      string
	track       timeline.TrackSelection
	fps         float64
	outputDir   string
	mappingPath string
	lines       []annotation.Line
	sceneText   string
	sceneOK     bool
	scenePath   string
}

// NewSink builds the encode sink selected by cfg.Encoder.Kind.
func NewSink(cfg *config.Config, logger *slog.Logger) encode.Sink {
	if cfg.Encoder.Kind == config.EncoderNone {
		return &encode.Recorder{}
	}
	return encode.NewFFmpegQueue(encode.FFmpegOptions{
		Binary:     cfg.FFmpegBinary(),
		SampleRate: cfg.Encoder.SampleRate,
		Channels:   cfg.Encoder.Channels,
	}, logger)
}

// Run performs one pass. The returned error is non-nil only for a scene
// continuity violation; every other failure is reported through Result.
func Run(ctx context.Context, req Request) (Result, error) {
	now := req.Now
	if now == nil {
		now = time.Now
	}
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(req.Logger, "exporter"))

	res := Result{RunID: runID, Mode: ModeExport, DryRun: req.DryRun, StartedAt: now()}
	cfg := req.Config
	if cfg == nil {
		return fail(res, &ConfigError{Reason: "configuration is required"}, logger, now), nil
	}
	if cfg.Export.SyncMappingOnly {
		res.Mode = ModeSync
	}
	res.Locale = cfg.Export.Locale
	res.Standalone = cfg.Standalone()

	in, err := prepare(cfg, logger)
	if err != nil {
		return fail(res, err, logger, now), nil
	}
	res.SequenceName = in.sequence.Name
	res.SequenceMethod = in.method
	res.FrameRate = in.fps
	res.Track = fmt.Sprintf("%s %d", in.track.Kind, in.track.Index+1)
	res.OutputDir = in.outputDir
	res.MappingPath = in.mappingPath

	clips := in.track.Clips
	res.Scanned = len(clips)
	logger.Info("export pass started",
		logging.String("mode", res.Mode),
		logging.String("sequence", in.sequence.Name),
		logging.String("sequence_method", in.method),
		logging.String("track", res.Track),
		logging.Int("clips", len(clips)),
		logging.Float64("fps", in.fps),
		logging.String("output_dir", in.outputDir),
	)

	var decisions []bool
	var criterion selection.Criterion
	if res.Mode == ModeSync {
		criterion = selection.Criterion{Kind: selection.KindAll}
		decisions = selection.Decide(clips, criterion)
		res.Criterion = "none (mapping sync)"
	} else {
		resolution, err := selection.Resolve(clips, criteriaFromConfig(cfg.Selection), selection.Options{
			SceneText:   in.sceneText,
			SceneTextOK: in.sceneOK,
			ScenePath:   in.scenePath,
			Logger:      logger,
		})
		if err != nil {
			res.Message = err.Error()
			return finish(res, now), err
		}
		decisions = resolution.Decisions
		criterion = resolution.Criterion
		res.Criterion = resolution.Criterion.Describe()
		res.SceneFallback = resolution.SceneFallback
		if resolution.Criterion.Kind == selection.KindScenes {
			res.Scenes = append([]int(nil), resolution.Criterion.Scenes...)
		}
		res.Skipped = resolution.Skipped
	}

	records := timing.Resolve(clips, in.fps, in.lines, cfg.Export.DefaultGapFrames)

	if err := ctx.Err(); err != nil {
		return fail(res, fmt.Errorf("export cancelled: %w", err), logger, now), nil
	}

	var sink encode.Sink
	if res.Mode == ModeExport {
		sink = req.Sink
		if req.DryRun {
			sink = &encode.Recorder{}
		} else if sink == nil {
			if cfg.Encoder.Kind == config.EncoderFFmpeg && cfg.Encoder.SourceMedia == "" {
				return fail(res, &ConfigError{Reason: "encoder.source_media is required for the ffmpeg encoder"}, logger, now), nil
			}
			sink = NewSink(cfg, logger)
		}
		res.Cleanup = runCleanup(ctx, cfg, in.outputDir, criterion, clips, decisions, req.DryRun, logger)
	} else {
		res.Cleanup = CleanupReport{Skipped: true}
	}

	outputs := make(map[int]string)
	startFailed := false
	if sink != nil {
		outputs = enqueueClips(ctx, cfg, sink, clips, decisions, in.outputDir, &res, logger)
		if res.Exported > 0 {
			if err := sink.Start(ctx); err != nil {
				startFailed = true
				res.Errors = append(res.Errors, ClipError{Error: fmt.Sprintf("start encode queue: %v", err)})
				logging.ErrorWithContext(logger, "encode queue did not start", "encode_start_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the encoder settings with clipexport doctor"),
				)
			}
		}
	}

	if !req.DryRun {
		artifact := mapping.Build(clips, decisions, records, mapping.Meta{
			Locale:       cfg.Export.Locale,
			SequenceName: in.sequence.Name,
			GeneratedAt:  now(),
		})
		if err := mapping.Write(in.mappingPath, artifact); err != nil {
			res.MappingError = err.Error()
			logging.WarnWithContext(logger, "mapping artifact not written", "mapping_write_failed",
				logging.String("path", in.mappingPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check output directory permissions"),
				logging.String(logging.FieldImpact, "the assembly tool keeps reading the previous mapping"),
			)
		} else {
			res.MappingGenerated = true
			logger.Info("mapping artifact written",
				logging.String("path", in.mappingPath),
				logging.Int("clips", artifact.TotalClips),
				logging.Int("total_frames", timing.TotalFrames(records, in.fps)),
			)
		}
	}

	res.Clips = clipDetails(clips, decisions, records, outputs)
	res.Success = !startFailed
	res.Message = summaryMessage(res)
	res = finish(res, now)
	logger.Info("export pass finished",
		logging.String("message", res.Message),
		logging.Int("scanned", res.Scanned),
		logging.Int("exported", res.Exported),
		logging.Int("skipped", res.Skipped),
		logging.Int("errors", len(res.Errors)),
		logging.Bool("mapping_generated", res.MappingGenerated),
		logging.Int64("duration_ms", res.DurationMS),
	)
	return res, nil
}

func prepare(cfg *config.Config, logger *slog.Logger) (*input, error) {
	timelinePath, err := cfg.TimelinePath()
	if err != nil {
		return nil, &ConfigError{Reason: "timeline path is not configured", Err: err}
	}
	doc, err := timeline.Load(timelinePath)
	if err != nil {
		return nil, &ConfigError{Reason: "no usable timeline", Err: err}
	}
	sel, err := timeline.SelectSequence(doc, timeline.SequenceQuery{
		Name:       cfg.Export.SequenceName,
		Index:      cfg.Export.SequenceIndex,
		Locale:     cfg.Export.Locale,
		Subproject: cfg.Export.Subproject,
	})
	if err != nil {
		return nil, &ConfigError{Reason: "no usable sequence", Err: err}
	}
	if sel.Fallback {
		logging.WarnWithContext(logger, "no sequence folder matches locale or subproject; using first match", "sequence_fallback",
			logging.String("sequence", sel.Sequence.Name),
			logging.String("tree_path", sel.Sequence.TreePath),
			logging.String("locale", cfg.Export.Locale),
			logging.String("subproject", cfg.Export.Subproject),
			logging.String(logging.FieldImpact, "clips may come from another locale's sequence"),
		)
	}
	track, ok := timeline.SelectTrack(sel.Sequence)
	if !ok {
		return nil, &ConfigError{Reason: fmt.Sprintf("sequence %q has no clips", sel.Sequence.Name)}
	}
	outputDir, err := cfg.OutputDirectory()
	if err != nil {
		return nil, &ConfigError{Reason: "output directory is not configured", Err: err}
	}

	in := &input{
		sequence:    sel.Sequence,
		method:      sel.Method,
		track:       track,
		fps:         timing.ResolveFrameRate(sel.Sequence.FrameRate, int64(sel.Sequence.Timebase), cfg.Export.DefaultFrameRate),
		outputDir:   outputDir,
		mappingPath: filepath.Join(outputDir, cfg.Export.MappingFile),
	}
	loadAnnotations(cfg, in, logger)
	return in, nil
}

func loadAnnotations(cfg *config.Config, in *input, logger *slog.Logger) {
	subtitlePath, err := cfg.SubtitlePath()
	var subtitleText string
	var subtitleOK bool
	if err == nil {
		subtitleText, subtitleOK = readText(subtitlePath)
	}
	if subtitleOK {
		in.lines = annotation.ParseLines(subtitleText, cfg.Export.DefaultGapFrames)
	}
	if len(in.lines) == 0 {
		logging.WarnWithContext(logger, "annotation file missing or empty", "annotation_missing",
			logging.String("path", subtitlePath),
			logging.String(logging.FieldImpact, "every clip uses the default gap"),
			logging.Int("default_gap_frames", cfg.Export.DefaultGapFrames),
		)
	} else if len(in.lines) < len(in.track.Clips) {
		logging.WarnWithContext(logger, "annotation has fewer lines than clips", "annotation_short",
			logging.String("path", subtitlePath),
			logging.Int("lines", len(in.lines)),
			logging.Int("clips", len(in.track.Clips)),
			logging.String(logging.FieldImpact, "trailing clips use the default gap"),
		)
	}

	if !criteriaFromConfig(cfg.Selection).HasScenes() {
		return
	}
	scenePath, err := cfg.ScenePath()
	if err != nil {
		return
	}
	in.scenePath = scenePath
	if scenePath == subtitlePath {
		in.sceneText, in.sceneOK = subtitleText, subtitleOK
		return
	}
	in.sceneText, in.sceneOK = readText(scenePath)
}

func readText(path string) (string, bool) {
	if strings.TrimSpace(path) == "" {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func criteriaFromConfig(sel config.Selection) selection.Criteria {
	return selection.Criteria{
		Scenes:        sel.Scenes,
		SceneStart:    sel.SceneStart,
		SceneEnd:      sel.SceneEnd,
		SourceIndices: sel.SourceIndices,
		SourceStart:   sel.SourceStart,
		SourceEnd:     sel.SourceEnd,
	}
}

// PlanFor computes the cleanup plan a pass would execute for criterion.
func PlanFor(cfg *config.Config, outputDir string, criterion selection.Criterion, clips []timeline.Clip, decisions []bool) (cleanup.Plan, error) {
	entries, err := cleanup.Snapshot(outputDir)
	if err != nil {
		return cleanup.Plan{}, err
	}
	mode := cleanup.ModeTargeted
	if criterion.Full() {
		mode = cleanup.ModeFull
	}
	return cleanup.PlanCleanup(outputDir, mode, clips, decisions, entries, namingFromConfig(cfg)), nil
}

func namingFromConfig(cfg *config.Config) cleanup.Naming {
	return cleanup.Naming{
		ZeroPad:     cfg.Export.ZeroPad,
		PadWidth:    cfg.Export.PadWidth,
		Extensions:  cfg.Export.AudioExtensions,
		ReservedDir: cfg.Export.ReservedDir,
	}
}

func runCleanup(ctx context.Context, cfg *config.Config, outputDir string, criterion selection.Criterion, clips []timeline.Clip, decisions []bool, dryRun bool, logger *slog.Logger) CleanupReport {
	plan, err := PlanFor(cfg, outputDir, criterion, clips, decisions)
	if err != nil {
		logging.WarnWithContext(logger, "output directory could not be read; skipping cleanup", "cleanup_snapshot_failed",
			logging.String("path", outputDir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale outputs from earlier runs may remain"),
		)
		return CleanupReport{Skipped: true}
	}
	report := CleanupReport{
		Mode:      string(plan.Mode),
		Planned:   len(plan.Candidates),
		Preserved: plan.Preserved,
	}
	if dryRun {
		return report
	}
	result := cleanup.Execute(ctx, plan, logger)
	report.Removed = len(result.Removed)
	report.Failed = len(result.Errors)
	return report
}

func enqueueClips(ctx context.Context, cfg *config.Config, sink encode.Sink, clips []timeline.Clip, decisions []bool, outputDir string, res *Result, logger *slog.Logger) map[int]string {
	outputs := make(map[int]string)
	for i, clip := range clips {
		if !decisions[i] {
			continue
		}
		output := filepath.Join(outputDir, clip.OutputName(cfg.Export.ZeroPad, cfg.Export.PadWidth)+cfg.Encoder.Extension)
		job := encode.Job{
			ClipIndex:       clip.Index,
			Name:            clip.Name,
			Source:          cfg.Encoder.SourceMedia,
			StartSeconds:    timing.Seconds(clip.StartTicks),
			DurationSeconds: timing.Seconds(clip.EndTicks - clip.StartTicks),
			Output:          output,
		}
		if err := sink.Enqueue(ctx, job); err != nil {
			res.Errors = append(res.Errors, ClipError{ClipIndex: clip.Index, Name: clip.Name, Error: err.Error()})
			logging.WarnWithContext(logger, "clip not queued for encode", "clip_enqueue_failed",
				logging.Int("clip", clip.Index),
				logging.String("name", clip.Name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "this clip keeps its previous output, if any"),
			)
			continue
		}
		outputs[clip.Index] = output
		res.Exported++
	}
	return outputs
}

func clipDetails(clips []timeline.Clip, decisions []bool, records []timing.Record, outputs map[int]string) []ClipDetail {
	details := make([]ClipDetail, 0, len(clips))
	for i, clip := range clips {
		detail := ClipDetail{
			Index:    clip.Index,
			Name:     clip.Name,
			Included: decisions[i],
			Output:   outputs[clip.Index],
		}
		if src, ok := clip.Source(); ok {
			detail.SourceIndex = &src
		}
		if i < len(records) {
			detail.DurationSeconds = records[i].DurationSeconds
			detail.NativeStartFrame = records[i].NativeStartFrame
			detail.GapStartFrame = records[i].GapStartFrame
			detail.GapFrames = records[i].GapFrames
		}
		details = append(details, detail)
	}
	return details
}

func fail(res Result, err error, logger *slog.Logger, now func() time.Time) Result {
	res.Success = false
	res.Message = err.Error()
	res = finish(res, now)
	attrs := []logging.Attr{
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check paths and sequence settings with clipexport doctor"),
	}
	if IsConfigError(err) {
		attrs = append(attrs, logging.String(logging.FieldImpact, "nothing was removed, encoded, or written"))
	}
	logging.ErrorWithContext(logger, "export pass failed", "export_failed", attrs...)
	return res
}

func finish(res Result, now func() time.Time) Result {
	res.FinishedAt = now()
	res.DurationMS = res.FinishedAt.Sub(res.StartedAt).Milliseconds()
	return res
}
