package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// runRetentionCmd represents the run-retention command
var runRetentionCmd = &cobra.Command{
	Use:   "run-retention",
	Short: "지식 보존 정책 적용 (비활성화 / 상한 / 저널 삭제)",
	Long: `원칙과 직관에 보존 정책을 적용합니다.

이 명령어는:
- 신뢰도 0.3 미만 비활성화
- 검증 경과일 초과 비활성화
- 활성 개수 상한 초과분 비활성화 (신뢰도, 근거 수 낮은 순)
- 보존 기간이 지난 layer 3 저널 삭제

모든 변경은 단일 트랜잭션으로 반영됩니다.

Example:
  go run ./cmd/quant run-retention --dry-run
  go run ./cmd/quant run-retention --max-principles 30`,
	RunE: runRetention,
}

var (
	retentionDryRun        bool
	retentionMaxPrinciples int
	retentionMaxIntuitions int
	retentionStaleDays     int
	retentionArchiveDays   int
)

func init() {
	rootCmd.AddCommand(runRetentionCmd)

	runRetentionCmd.Flags().BoolVar(&retentionDryRun, "dry-run", false, "변경 없이 계획만 출력")
	runRetentionCmd.Flags().IntVar(&retentionMaxPrinciples, "max-principles", 0, "활성 원칙 상한 (기본: RETENTION_MAX_PRINCIPLES)")
	runRetentionCmd.Flags().IntVar(&retentionMaxIntuitions, "max-intuitions", 0, "활성 직관 상한 (기본: RETENTION_MAX_INTUITIONS)")
	runRetentionCmd.Flags().IntVar(&retentionStaleDays, "stale-days", 0, "미검증 비활성화 경과일 (기본: RETENTION_STALE_DAYS)")
	runRetentionCmd.Flags().IntVar(&retentionArchiveDays, "archive-days", 0, "layer 3 저널 보존일 (기본: RETENTION_ARCHIVE_DAYS)")
}

func runRetention(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	r := &a.cfg.Retention
	if retentionMaxPrinciples > 0 {
		r.MaxPrinciples = retentionMaxPrinciples
	}
	if retentionMaxIntuitions > 0 {
		r.MaxIntuitions = retentionMaxIntuitions
	}
	if retentionStaleDays > 0 {
		r.StaleDays = retentionStaleDays
	}
	if retentionArchiveDays > 0 {
		r.ArchiveDays = retentionArchiveDays
	}

	ctx, cancel := runContext()
	defer cancel()

	result, err := a.retention(retentionDryRun).Run(ctx)
	if err != nil {
		return fmt.Errorf("retention: %w", err)
	}

	p := result.Plan
	PrintDoubleSeparator()
	fmt.Printf("  Knowledge Retention%s\n", dryRunTag(result.DryRun))
	PrintSeparator()
	PrintKeyValue("Low confidence", fmt.Sprintf("principles=%d intuitions=%d", len(p.LowConfidencePrinciples), len(p.LowConfidenceIntuitions)), 16)
	PrintKeyValue("Stale", fmt.Sprintf("principles=%d intuitions=%d", len(p.StalePrinciples), len(p.StaleIntuitions)), 16)
	PrintKeyValue("Over cap", fmt.Sprintf("principles=%d intuitions=%d", len(p.OverflowPrinciples), len(p.OverflowIntuitions)), 16)
	PrintKeyValue("Archived journal", fmt.Sprintf("%d", len(p.ArchiveJournalIDs)), 16)
	PrintKeyValue("Summary", result.Summary.String(), 16)
	PrintDoubleSeparator()

	switch {
	case result.Applied:
		PrintSuccess("Retention applied")
	case p.Empty():
		PrintInfo("Nothing to retire")
	default:
		PrintInfo("Dry run: no changes written")
	}

	return nil
}
