package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// runCompressionCmd represents the run-compression command
var runCompressionCmd = &cobra.Command{
	Use:   "run-compression",
	Short: "저널 압축 (layer 1 → 2 → 3, 직관 도출)",
	Long: `오래된 매매 저널을 압축 계층으로 승격합니다.

이 명령어는:
- layer 1 (상세) → 2 (요약): 교훈을 원칙으로 이관
- layer 2 (요약) → 3 (압축): 시장별 패턴 태그로 직관 도출/갱신
- 시장별 최소 건수 미만이면 승격하지 않음

Example:
  go run ./cmd/quant run-compression
  go run ./cmd/quant run-compression --dry-run
  go run ./cmd/quant run-compression --layer1-days 3 --min-entries 5`,
	RunE: runCompression,
}

var (
	compressionDryRun     bool
	compressionLayer1Days int
	compressionLayer2Days int
	compressionMinEntries int
)

func init() {
	rootCmd.AddCommand(runCompressionCmd)

	runCompressionCmd.Flags().BoolVar(&compressionDryRun, "dry-run", false, "변경 없이 결과만 출력")
	runCompressionCmd.Flags().IntVar(&compressionLayer1Days, "layer1-days", 0, "layer 1 승격 경과일 (기본: KNOWLEDGE_LAYER1_AGE_DAYS)")
	runCompressionCmd.Flags().IntVar(&compressionLayer2Days, "layer2-days", 0, "layer 2 승격 경과일 (기본: KNOWLEDGE_LAYER2_AGE_DAYS)")
	runCompressionCmd.Flags().IntVar(&compressionMinEntries, "min-entries", 0, "시장별 최소 건수 (기본: KNOWLEDGE_MIN_ENTRIES)")
}

func runCompression(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// CLI 플래그가 설정값보다 우선
	if compressionLayer1Days > 0 {
		a.cfg.Knowledge.Layer1AgeDays = compressionLayer1Days
	}
	if compressionLayer2Days > 0 {
		a.cfg.Knowledge.Layer2AgeDays = compressionLayer2Days
	}
	if compressionMinEntries > 0 {
		a.cfg.Knowledge.MinEntries = compressionMinEntries
	}
	if a.cfg.Knowledge.Layer2AgeDays <= a.cfg.Knowledge.Layer1AgeDays {
		return fmt.Errorf("layer2-days (%d) must exceed layer1-days (%d)",
			a.cfg.Knowledge.Layer2AgeDays, a.cfg.Knowledge.Layer1AgeDays)
	}

	ctx, cancel := runContext()
	defer cancel()

	start := time.Now()
	result, err := a.compressor(compressionDryRun).Run(ctx)
	if err != nil {
		return fmt.Errorf("compression: %w", err)
	}

	PrintDoubleSeparator()
	fmt.Printf("  Knowledge Compression%s\n", dryRunTag(result.DryRun))
	PrintSeparator()
	PrintKeyValue("Layer 1 → 2", result.Layer1.String(), 12)
	PrintKeyValue("Layer 2 → 3", result.Layer2.String(), 12)
	PrintKeyValue("Principles", fmt.Sprintf("%d upserted", result.PrinciplesUpserted), 12)
	PrintKeyValue("Intuitions", fmt.Sprintf("%d upserted", result.IntuitionsUpserted), 12)

	if len(result.Intuitions) > 0 {
		PrintSeparator()
		PrintTableHeader([]string{"Market", "Condition", "Success", "Support"}, []int{8, 24, 8, 8})
		for _, in := range result.Intuitions {
			PrintTableRow([]string{
				string(in.Market),
				in.Condition,
				fmt.Sprintf("%.0f%%", in.SuccessRate*100),
				fmt.Sprintf("%d", in.SupportingCount),
			}, []int{8, 24, 8, 8})
		}
	}
	PrintDoubleSeparator()
	PrintSuccess(fmt.Sprintf("Completed in %.2fs", time.Since(start).Seconds()))

	return nil
}
