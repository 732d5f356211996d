package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "스키마 마이그레이션 적용",
	Long: `knowledge / analytics 스키마의 미적용 마이그레이션을 순서대로 적용합니다.

Example:
  go run ./cmd/quant migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := runContext()
	defer cancel()

	applied, err := a.db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	version, err := a.db.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Applied %d migration(s), schema version %d", applied, version))
	return nil
}
