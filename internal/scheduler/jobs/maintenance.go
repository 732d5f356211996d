package jobs

import (
	"context"
	"time"

	"github.com/wonny/aegis-insight/internal/knowledge"
	"github.com/wonny/aegis-insight/pkg/logger"
)

// Job names
const (
	CompressionJobName  = "knowledge_compression"
	RetentionJobName    = "knowledge_retention"
	CacheCleanupJobName = "cache_cleanup"
)

// Compressor 저널 압축 실행기 (*knowledge.Compressor)
type Compressor interface {
	Run(ctx context.Context) (*knowledge.CompressionResult, error)
}

// Retention 보존 정책 실행기 (*knowledge.RetentionPolicy)
type Retention interface {
	Run(ctx context.Context) (*knowledge.RetentionResult, error)
}

// CompressionJob compresses aged journal entries into intuitions
type CompressionJob struct {
	compressor Compressor
	observer   Observer
	logger     *logger.Logger
}

// NewCompressionJob creates a new compression job
func NewCompressionJob(c Compressor, obs Observer, log *logger.Logger) *CompressionJob {
	return &CompressionJob{
		compressor: c,
		observer:   observerOrNop(obs),
		logger:     log,
	}
}

// Name returns the job name
func (j *CompressionJob) Name() string {
	return CompressionJobName
}

// Schedule returns the cron schedule (daily 03:00)
func (j *CompressionJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run executes the compression
func (j *CompressionJob) Run(ctx context.Context) error {
	start := time.Now()
	result, err := j.compressor.Run(ctx)

	summary := zeroSummary
	if result != nil {
		summary = result.Summary()
	}
	j.observer.Observe(j.Name(), summary, err, time.Since(start))

	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"summary":    summary.String(),
		"principles": result.PrinciplesUpserted,
		"intuitions": result.IntuitionsUpserted,
	}).Info("Scheduled compression completed")
	return nil
}

// RetentionJob enforces knowledge retention limits
type RetentionJob struct {
	retention Retention
	observer  Observer
	logger    *logger.Logger
}

// NewRetentionJob creates a new retention job
func NewRetentionJob(r Retention, obs Observer, log *logger.Logger) *RetentionJob {
	return &RetentionJob{
		retention: r,
		observer:  observerOrNop(obs),
		logger:    log,
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return RetentionJobName
}

// Schedule returns the cron schedule (Sunday 04:00)
func (j *RetentionJob) Schedule() string {
	return "0 0 4 * * 0"
}

// Run executes the retention policy
func (j *RetentionJob) Run(ctx context.Context) error {
	start := time.Now()
	result, err := j.retention.Run(ctx)

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
		"plan":    result.Plan.String(),
	}).Info("Scheduled retention completed")
	return nil
}

// StaleCleaner 만료 항목 정리 (*pricedata.MemoryCache)
type StaleCleaner interface {
	CleanStale() int
}

// CacheCleanupJob cleans expired prices from the in-process cache
type CacheCleanupJob struct {
	cache  StaleCleaner
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache StaleCleaner, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  cache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return CacheCleanupJobName
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	count := j.cache.CleanStale()

	if count > 0 {
		j.logger.WithField("removed", count).Info("Cache cleanup completed")
	}

	return nil
}
