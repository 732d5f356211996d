package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-insight/internal/metrics"
	"github.com/wonny/aegis-insight/internal/scheduler"
	"github.com/wonny/aegis-insight/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run tracker_advance`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업 (Asia/Seoul):
- knowledge_compression: 매일 03:00
- knowledge_retention: 매주 일요일 04:00
- tracker_advance: 평일 18:30
- cache_cleanup: 5분마다 (redis 미사용 시 프로세스 내 가격 캐시 정리)

METRICS_ENABLED이면 METRICS_PORT에서 /metrics, /health를 제공합니다.
스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행 (완료까지 대기)",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Insight Scheduler ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	recorder := metrics.New()
	sched, err := initScheduler(a, recorder)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	errCh := make(chan error, 1)
	if a.cfg.MetricsEnabled {
		server := newOpsServer(a, recorder.Handler())
		go func() {
			errCh <- server.Start()
		}()
		defer func() {
			if err := shutdownOpsServer(server); err != nil {
				a.log.WithError(err).Error("Ops server shutdown failed")
			}
		}()
		fmt.Printf("\nMetrics on http://localhost:%s/metrics\n", a.cfg.MetricsPort)
	}

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	printJobList(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		sched.Stop()
		return err
	case <-quit:
	}

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a, nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// 다음 실행 시각 계산을 위해 시작 후 바로 정지
	sched.Start()
	defer sched.Stop()

	fmt.Println("Registered jobs:")
	printJobList(sched)

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a, nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	ctx, cancel := runContext()
	defer cancel()

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunJobNow(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempt(s): %s", jobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %.2fs", jobName, result.Duration.Seconds()))
	return nil
}

// showStatus 이 프로세스에서 실행된 이력만 보임 (이력은 메모리 보관)
func showStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a, nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}

		if stat.LastSuccess != nil {
			fmt.Printf("   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}

		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

func printJobList(sched *scheduler.Scheduler) {
	for _, jobName := range sched.GetAllJobs() {
		next, err := sched.NextRun(jobName)
		if err != nil || next.IsZero() {
			fmt.Printf("  - %s\n", jobName)
			continue
		}
		fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04"))
	}
}

// initScheduler 배치 작업 등록 (observer가 nil이면 메트릭 미기록)
func initScheduler(a *app, recorder *metrics.Recorder) (*scheduler.Scheduler, error) {
	prices, err := a.priceLookup()
	if err != nil {
		return nil, fmt.Errorf("price source: %w", err)
	}

	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		a.log.WithError(err).Warn("Asia/Seoul unavailable, using local time")
		loc = time.Local
	}

	var obs jobs.Observer
	if recorder != nil {
		obs = recorder
	}

	sched := scheduler.New(a.log, scheduler.WithLocation(loc))

	for _, job := range []scheduler.Job{
		jobs.NewCompressionJob(a.compressor(false), obs, a.log),
		jobs.NewRetentionJob(a.retention(false), obs, a.log),
		jobs.NewTrackerAdvanceJob(a.advancer(prices, false), obs, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}

	if a.memCache != nil {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(a.memCache, a.log)); err != nil {
			return nil, err
		}
	}

	return sched, nil
}
