package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-insight/internal/api"
	"github.com/wonny/aegis-insight/internal/api/handlers"
	"github.com/wonny/aegis-insight/internal/tracker"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "운영 서버 시작 (/health, /metrics, 조회 API)",
	Long: `운영용 HTTP 서버를 단독으로 시작합니다.
scheduler start는 METRICS_ENABLED일 때 같은 서버를 함께 띄웁니다.

Endpoints:
  GET  /health                 - DB 포함 상태 확인
  GET  /metrics                - prometheus 메트릭
  GET  /api/knowledge/stats    - 지식 저장소 현황
  GET  /api/tracker/report     - 성과 추적 리포트

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 9100`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "서버 포트 (기본: METRICS_PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.MetricsPort = apiPort
	}

	server := newOpsServer(a, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.MetricsPort)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	return shutdownOpsServer(server)
}

// newOpsServer 운영 서버 조립 (metricsHandler가 nil이면 /metrics 미등록)
func newOpsServer(a *app, metricsHandler http.Handler) *api.Server {
	router := api.NewRouter(api.Handlers{
		Health:    handlers.NewHealthHandler(a.db, "aegis-insight"),
		Knowledge: handlers.NewKnowledgeHandler(a.knowledgeRepo, a.log),
		Tracker:   handlers.NewTrackerHandler(a.trackerRepo, tracker.NewAggregator(a.log.Component("tracker")), a.log),
		Metrics:   metricsHandler,
	}, a.log)

	return api.New(a.cfg, a.log, router)
}

func shutdownOpsServer(server *api.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
