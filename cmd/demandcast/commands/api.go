package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/faviy/demandcast/internal/api"
	"github.com/faviy/demandcast/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `산출물 조회용 REST API 서버를 시작합니다 (read-only).

Endpoints:
  GET  /health                   - Health check
  GET  /api/products             - 예측 또는 정제 시계열이 있는 제품 목록
  GET  /api/forecasts/{product}  - 제품별 예측
  GET  /api/series/{product}     - 제품별 정제 시계열
  GET  /api/accuracy             - 정확도 요약 (?sort=MAPE&desc=false)
  GET  /api/jobs                 - 스케줄 작업 상태 (--with-scheduler)
  GET  /metrics                  - Prometheus metrics

아직 생성되지 않은 산출물은 404 {"status":"not_yet_available"}.

Example:
  go run ./cmd/demandcast api
  go run ./cmd/demandcast api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "run the scheduled jobs in the same process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	d, err := initDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	if apiPort != "" {
		d.cfg.Port = apiPort
	}

	routes := api.Routes{
		Artifacts: handlers.NewArtifactHandler(d.store, d.sink, d.log),
	}
	if d.cfg.MetricsEnabled {
		routes.Metrics = d.metrics.Handler()
	}

	if withScheduler {
		sched, err := initScheduler(d)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		routes.Jobs = handlers.NewJobsHandler(sched)
		sched.Start()
		defer sched.Stop()
	}

	server := api.New(d.cfg, d.log, api.NewRouter(routes, d.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n✅ Server running on http://localhost:%s\n", d.cfg.Port)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	d.log.Info("Server stopped")
	return nil
}
