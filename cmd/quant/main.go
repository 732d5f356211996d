package main

import (
	"os"
	_ "time/tzdata" // 스케줄러 Asia/Seoul 해석용

	"github.com/wonny/aegis-insight/cmd/quant/commands"
)

// main is the entry point for the Aegis Insight CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/quant [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
