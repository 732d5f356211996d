package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-insight/internal/contracts"
	"github.com/wonny/aegis-insight/internal/tracker"
)

// runTrackerAdvanceCmd represents the run-tracker-advance command
var runTrackerAdvanceCmd = &cobra.Command{
	Use:   "run-tracker-advance",
	Short: "성과 추적 진행 (7/14/30일 슬롯 기록)",
	Long: `분석 시점 이후 도래한 7/14/30일 슬롯에 현재가와 수익률을 기록합니다.

이 명령어는:
- pending / in_progress 레코드만 대상
- 레코드당 현재가 1회 조회, 이미 기록된 슬롯은 덮어쓰지 않음
- 상태는 pending → in_progress → completed 방향으로만 변경

Example:
  go run ./cmd/quant run-tracker-advance
  go run ./cmd/quant run-tracker-advance --workers 8
  go run ./cmd/quant run-tracker-advance --report
  go run ./cmd/quant run-tracker-advance --dry-run`,
	RunE: runTrackerAdvance,
}

// runBackfillCmd represents the run-backfill command
var runBackfillCmd = &cobra.Command{
	Use:   "run-backfill",
	Short: "성과 추적 재계산 (과거 종가 기준)",
	Long: `세 기간 수익률이 모두 같은 의심 레코드를 실제 과거 종가로 재계산합니다.

--id를 지정하면 해당 레코드만 재계산합니다.
조회 간격은 BACKFILL_DELAY로 제한됩니다.

Example:
  go run ./cmd/quant run-backfill --dry-run
  go run ./cmd/quant run-backfill --id 12 --id 15`,
	RunE: runBackfill,
}

var (
	advanceDryRun  bool
	advanceReport  bool
	advanceWorkers int

	backfillIDs    []int64
	backfillDryRun bool
)

func init() {
	rootCmd.AddCommand(runTrackerAdvanceCmd)
	rootCmd.AddCommand(runBackfillCmd)

	runTrackerAdvanceCmd.Flags().BoolVar(&advanceDryRun, "dry-run", false, "저장 없이 변경 내용만 출력")
	runTrackerAdvanceCmd.Flags().BoolVar(&advanceReport, "report", false, "진행 없이 성과 리포트만 출력")
	runTrackerAdvanceCmd.Flags().IntVar(&advanceWorkers, "workers", 0, "동시 처리 레코드 수 (기본: TRACKER_WORKERS)")

	runBackfillCmd.Flags().Int64SliceVar(&backfillIDs, "id", nil, "재계산할 레코드 id (반복 지정 가능)")
	runBackfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "저장 없이 재계산 결과만 출력")
}

func runTrackerAdvance(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if advanceWorkers > 0 {
		a.cfg.Tracker.Workers = advanceWorkers
	}

	ctx, cancel := runContext()
	defer cancel()

	return trackerAdvance(ctx, a, advanceDryRun, advanceReport, os.Stdout)
}

// trackerSession run-tracker-advance 실행에 필요한 의존성
type trackerSession interface {
	priceLookup() (contracts.PriceLookup, error)
	runAdvance(ctx context.Context, prices contracts.PriceLookup, dryRun bool) (*tracker.AdvanceResult, error)
	loadReport(ctx context.Context) (*tracker.Report, error)
}

// trackerAdvance --report면 집계만 출력 (가격 조회/진행 없음)
func trackerAdvance(ctx context.Context, s trackerSession, dryRun, report bool, w io.Writer) error {
	if report {
		r, err := s.loadReport(ctx)
		if err != nil {
			return fmt.Errorf("tracker report: %w", err)
		}
		r.Print(w)
		return nil
	}

	prices, err := s.priceLookup()
	if err != nil {
		return fmt.Errorf("price source: %w", err)
	}

	result, err := s.runAdvance(ctx, prices, dryRun)
	if err != nil {
		return fmt.Errorf("tracker advance: %w", err)
	}

	printAdvanceResult(result)
	return nil
}

func printAdvanceResult(result *tracker.AdvanceResult) {
	PrintDoubleSeparator()
	fmt.Printf("  Tracker Advance%s\n", dryRunTag(result.DryRun))
	PrintSeparator()
	if len(result.Changes) > 0 {
		widths := []int{6, 8, 12, 10, 12}
		PrintTableHeader([]string{"ID", "Ticker", "Filled", "Price", "Status"}, widths)
		for _, c := range result.Changes {
			PrintTableRow([]string{
				fmt.Sprintf("%d", c.ID),
				c.Ticker,
				horizonList(c.Filled),
				fmt.Sprintf("%.0f", c.Price),
				string(c.Status),
			}, widths)
		}
		PrintSeparator()
	}
	PrintKeyValue("Summary", result.Summary.String(), 8)
	PrintDoubleSeparator()
}

func runBackfill(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	prices, err := a.priceLookup()
	if err != nil {
		return fmt.Errorf("price source: %w", err)
	}

	ctx, cancel := runContext()
	defer cancel()

	backfiller := tracker.NewBackfiller(prices, a.trackerRepo, tracker.BackfillConfig{
		Delay:      a.cfg.Tracker.BackfillDelay,
		WindowDays: a.cfg.Tracker.BackfillWindowDays,
		DryRun:     backfillDryRun,
	}, a.log.Component("tracker"))

	result, err := backfiller.Run(ctx, backfillIDs)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}

	PrintDoubleSeparator()
	fmt.Printf("  Tracker Backfill%s\n", dryRunTag(result.DryRun))
	PrintSeparator()
	if len(result.Records) > 0 {
		widths := []int{6, 8, 12, 12}
		PrintTableHeader([]string{"ID", "Ticker", "Found", "Status"}, widths)
		for _, o := range result.Records {
			PrintTableRow([]string{
				fmt.Sprintf("%d", o.ID),
				o.Ticker,
				horizonList(o.Found),
				string(o.Status),
			}, widths)
		}
		PrintSeparator()
	}
	PrintKeyValue("Summary", result.Summary.String(), 8)
	PrintDoubleSeparator()

	return nil
}

func horizonList(hs []contracts.Horizon) string {
	if len(hs) == 0 {
		return "-"
	}
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = fmt.Sprintf("%dd", h.Days())
	}
	return strings.Join(parts, ",")
}

func dryRunTag(dryRun bool) string {
	if dryRun {
		return " (dry-run)"
	}
	return ""
}
