package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/interco/internal/intercompany"
	jobmetrics "github.com/odyssey-erp/interco/internal/jobs"
)

// AutoMatcher is satisfied by the intercompany service.
type AutoMatcher interface {
	AutoMatch(ctx context.Context, limit int) (intercompany.AutoMatchResult, error)
}

// AutoMatchJob runs the periodic intercompany auto-match sweep.
type AutoMatchJob struct {
	Matcher      AutoMatcher
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
	DefaultLimit int
}

// NewAutoMatchJob initialises the auto-match handler.
func NewAutoMatchJob(matcher AutoMatcher, logger *slog.Logger, metrics *jobmetrics.Metrics, defaultLimit int) *AutoMatchJob {
	return &AutoMatchJob{Matcher: matcher, Logger: logger, Metrics: metrics, DefaultLimit: defaultLimit}
}

// Handle executes one sweep.
func (j *AutoMatchJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Matcher == nil {
		return errors.New("auto match: handler not configured")
	}
	var payload AutoMatchPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Limit <= 0 {
		payload.Limit = j.DefaultLimit
	}

	tracker := j.Metrics.Track(TaskIntercompanyAutoMatch)
	result, err := j.Matcher.AutoMatch(ctx, payload.Limit)
	if err != nil {
		loggerOrDefault(j.Logger).Error("auto match sweep failed", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddAutoMatch(result.Matched, result.Failed)
	loggerOrDefault(j.Logger).Info("auto match sweep finished",
		slog.String("job", TaskIntercompanyAutoMatch),
		slog.Int("considered", result.Considered),
		slog.Int("matched", result.Matched),
		slog.Int("failed", result.Failed))
	return tracker.End(nil)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
