package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/grocerpos/terminal/internal/application/admin"
	"github.com/grocerpos/terminal/internal/application/auth"
	"github.com/grocerpos/terminal/internal/application/sale"
	"github.com/grocerpos/terminal/internal/application/search"
	"github.com/grocerpos/terminal/internal/config"
	"github.com/grocerpos/terminal/internal/domain/catalog"
	"github.com/grocerpos/terminal/internal/domain/checkout"
	"github.com/grocerpos/terminal/internal/infrastructure/backend"
	"github.com/grocerpos/terminal/internal/infrastructure/id"
	"github.com/grocerpos/terminal/internal/infrastructure/memory"
	"github.com/grocerpos/terminal/internal/infrastructure/metrics"
	"github.com/grocerpos/terminal/internal/infrastructure/session"
	"github.com/grocerpos/terminal/internal/pkg/logging"
	"github.com/grocerpos/terminal/internal/presentation/term"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	m := metrics.New(prometheus.DefaultRegisterer)

	creds := session.NewHolder(session.NewFileStore(cfg.TokenFile))
	if err := creds.Restore(); err != nil {
		baseLogger.Warn("session_restore_failed", zap.Error(err))
	}

	client := backend.NewClient(cfg.BackendURL, creds, cfg.RequestTimeout, m)
	authSvc := auth.NewService(client, creds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.ContextWithLogger(ctx, baseLogger)

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			baseLogger.Info("metrics_server_start", zap.String("addr", cfg.MetricsAddr))
			err := metricsServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				baseLogger.Error("metrics_server_error", zap.Error(err))
			}
		}()
	}

	saleSvc := sale.NewService(client, id.NewUUIDGenerator(), m, func(result checkout.Result) {
		baseLogger.Info("sale_completed",
			zap.String("order_id", result.OrderID),
			zap.String("total", result.Total.String()),
		)
		_, _ = os.Stdout.WriteString("Sale completed\n")
	})
	adminSvc := admin.NewService(client, memory.NewCatalogView())

	// The terminal consumes search results and the search service needs the
	// terminal's sink; the closure breaks the construction order.
	var terminal *term.Terminal
	searchSvc := search.NewService(client, cfg.SearchDebounce, func(query string, products []catalog.Product, err error) {
		terminal.OnResults(query, products, err)
	}, m)
	terminal = term.New(authSvc, saleSvc, searchSvc, adminSvc, os.Stdin, os.Stdout)

	if err := terminal.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		baseLogger.Error("terminal_error", zap.Error(err))
	}
	searchSvc.Close()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			baseLogger.Error("metrics_server_shutdown_error", zap.Error(err))
		}
	}
}
