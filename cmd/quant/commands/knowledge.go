package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// knowledgeCmd represents the knowledge command
var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "지식 저장소 조회",
}

var knowledgeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "계층별 저널 수와 활성 직관/원칙 수",
	RunE:  showKnowledgeStats,
}

func init() {
	rootCmd.AddCommand(knowledgeCmd)
	knowledgeCmd.AddCommand(knowledgeStatsCmd)
}

func showKnowledgeStats(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := runContext()
	defer cancel()

	stats, err := a.knowledgeRepo.Stats(ctx)
	if err != nil {
		return fmt.Errorf("knowledge stats: %w", err)
	}

	PrintDoubleSeparator()
	fmt.Println("  Knowledge Stats")
	PrintSeparator()
	PrintKeyValue("Layer 1 (detailed)", fmt.Sprintf("%d", stats.JournalByLayer[contracts.LayerDetailed]), 20)
	PrintKeyValue("Layer 2 (summarized)", fmt.Sprintf("%d", stats.JournalByLayer[contracts.LayerSummarized]), 20)
	PrintKeyValue("Layer 3 (compressed)", fmt.Sprintf("%d", stats.JournalByLayer[contracts.LayerCompressed]), 20)

	markets := make([]string, 0, len(stats.JournalByMarket))
	for m := range stats.JournalByMarket {
		markets = append(markets, string(m))
	}
	sort.Strings(markets)
	for _, m := range markets {
		PrintKeyValue("Market "+m, fmt.Sprintf("%d", stats.JournalByMarket[contracts.Market(m)]), 20)
	}

	PrintSeparator()
	PrintKeyValue("Active intuitions", fmt.Sprintf("%d", stats.ActiveIntuitions), 20)
	PrintKeyValue("Active principles", fmt.Sprintf("%d", stats.ActivePrinciples), 20)
	PrintDoubleSeparator()

	return nil
}
