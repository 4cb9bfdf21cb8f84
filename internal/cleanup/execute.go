package cleanup

import (
	"context"
	"log/slog"
	"os"

	"clipexport/internal/logging"
)

var removeFile = os.Remove

// Result contains the outcome of executing a cleanup plan.
type Result struct {
	Removed []string
	Errors  []RemoveError
}

// RemoveError pairs a file path with its removal error.
type RemoveError struct {
	Path  string
	Error error
}

// Execute removes every candidate independently. A failed removal is logged
// and recorded; the remaining candidates are still attempted.
func Execute(ctx context.Context, plan Plan, logger *slog.Logger) Result {
	if logger == nil {
		logger = logging.NewNop()
	}
	result := Result{}
	for _, candidate := range plan.Candidates {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, RemoveError{Path: candidate.Path, Error: err})
			continue
		}
		if err := removeFile(candidate.Path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			result.Errors = append(result.Errors, RemoveError{Path: candidate.Path, Error: err})
			logging.WarnWithContext(logger, "failed to remove previous clip output", "cleanup_remove_failed",
				logging.String("path", candidate.Path),
				logging.Int("clip", candidate.ClipIndex),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check output directory permissions"),
				logging.String(logging.FieldImpact, "a stale output may sit next to the new export"),
			)
			continue
		}
		result.Removed = append(result.Removed, candidate.Path)
		logger.Debug("removed previous clip output",
			logging.String("path", candidate.Path),
			logging.Int("clip", candidate.ClipIndex),
		)
	}
	logger.Info("cleanup finished",
		logging.String("mode", string(plan.Mode)),
		logging.Int("removed", len(result.Removed)),
		logging.Int("failed", len(result.Errors)),
		logging.Int("preserved", len(plan.Preserved)),
	)
	return result
}
