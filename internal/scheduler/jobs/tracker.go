package jobs

import (
	"context"
	"time"

	"github.com/wonny/aegis-insight/internal/tracker"
	"github.com/wonny/aegis-insight/pkg/logger"
)

// TrackerAdvanceJobName job name
const TrackerAdvanceJobName = "tracker_advance"

// Advancer 성과 추적 진행기 (*tracker.Advancer)
type Advancer interface {
	Run(ctx context.Context) (*tracker.AdvanceResult, error)
}

// TrackerAdvanceJob fills due horizon slots after market close
type TrackerAdvanceJob struct {
	advancer Advancer
	observer Observer
	logger   *logger.Logger
}

// NewTrackerAdvanceJob creates a new tracker advance job
func NewTrackerAdvanceJob(a Advancer, obs Observer, log *logger.Logger) *TrackerAdvanceJob {
	return &TrackerAdvanceJob{
		advancer: a,
		observer: observerOrNop(obs),
		logger:   log,
	}
}

// Name returns the job name
func (j *TrackerAdvanceJob) Name() string {
	return TrackerAdvanceJobName
}

// Schedule returns the cron schedule (weekdays 18:30, after close)
func (j *TrackerAdvanceJob) Schedule() string {
	return "0 30 18 * * 1-5"
}

// Run executes the tracker advance
func (j *TrackerAdvanceJob) Run(ctx context.Context) error {
	start := time.Now()
	result, err := j.advancer.Run(ctx)

	summary := zeroSummary
	if result != nil {
		summary = result.Summary
	}
	j.observer.Observe(j.Name(), summary, err, time.Since(start))

	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"summary": summary.String(),
		"changes": len(result.Changes),
	}).Info("Scheduled tracker advance completed")
	return nil
}
