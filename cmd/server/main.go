/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the zine ledger HTTP server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (file, .env, ZINE_LEDGER_* env)
  3. Initialize logger (zap, optional Sentry)
  4. Initialize SQLite store
  5. Build the ledger with configured policies
  6. Start the check-in sweep
  7. Configure HTTP router
  8. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Config file path (default: ./config.yaml if present)
  -env     .env file path (default: ./.env if present)
  -port    Overrides server.port
  -db      Overrides database.path; ":memory:" for in-memory

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the check-in sweep
  4. Close database connection
  5. Flush logs

EXAMPLES:
  ./server -db="./data/zines.db"
  ZINE_LEDGER_LEDGER_LOW_STOCK_MAX=3 ./server
  ZINE_LEDGER_DEMO_ENABLED=true ./server -db=":memory:"

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/zine-ledger/api"
	"github.com/warp/zine-ledger/config"
	"github.com/warp/zine-ledger/ledger"
	"github.com/warp/zine-ledger/logger"
	"github.com/warp/zine-ledger/store/sqlite"
)

func main() {
	// Flags
	configFile := flag.String("config", "", "Config file path")
	envFile := flag.String("env", "", ".env file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags:      map[string]string{"service": "zine-ledger"},
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Flush(2 * time.Second)

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer store.Close()

	l := ledger.New(store, store, store)
	l.Transitions = ledger.TransitionPolicyFor(cfg.Ledger.StrictTransitions)
	l.Thresholds = ledger.StockThresholds{LowStockMax: cfg.Ledger.LowStockMax}

	scheduler := api.NewCheckinScheduler(store)
	scheduler.Enabled = cfg.Checkins.Enabled
	scheduler.CheckInterval = time.Duration(cfg.Checkins.IntervalMinutes) * time.Minute
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(l, store)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		Demo:        cfg.Demo.Enabled,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting",
			zap.String("addr", server.Addr),
			zap.String("db", cfg.Database.Path),
			zap.Int("low_stock_max", cfg.Ledger.LowStockMax),
			zap.Bool("strict_transitions", cfg.Ledger.StrictTransitions),
			zap.Bool("demo", cfg.Demo.Enabled))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error(err, zap.String("phase", "shutdown"))
		return
	}

	logger.Info("Server stopped")
}
