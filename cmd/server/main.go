/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance assessment server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env, parse command-line flags
  2. Load config (YAML + ATTENDANCE_* env), start hot reload
  3. Initialize SQLite store, optional Redis cache
  4. Build the engine, handler, router and scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (optional)
  -port    HTTP server port (overrides config)
  -db      SQLite database path (overrides config)
           Use ":memory:" for in-memory database
  -debug   Debug-level logging

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler and the config watcher
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close Redis and database connections
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/attendance.db"

  # Run with in-memory database and a config file
  ./server -db=":memory:" -config=config.yaml

SEE ALSO:
  - config/config.go: Config layering and env variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/metrics"
	"github.com/warp/attendance-engine/store/redis"
	"github.com/warp/attendance-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	loader, err := config.NewLoader(*configPath, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := *loader.Config()
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}

	engineCfg, err := cfg.Assessment.ToAttendance()
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlite.New(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Results go through Redis when configured
	var results attendance.AssessmentStore = store
	ctx := context.Background()
	redisClient, err := redis.New(ctx, redis.Options{URL: cfg.Server.RedisURL})
	if err != nil {
		logger.Warn("redis unavailable, serving assessments from the database only", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		results = redis.NewCache(redisClient, store,
			redis.WithTTL(cfg.Server.CacheTTL),
			redis.WithLogger(logger),
			redis.WithObserver(m),
		)
	}

	engine, err := attendance.NewEngine(attendance.Dependencies{
		Employees: store,
		Events:    store,
		Shifts:    store,
		Results:   results,
		Runs:      store,
		Observer:  m,
		Clock:     generic.SystemClock{},
		Logger:    logger,
	}, engineCfg)
	if err != nil {
		return err
	}

	// Hot reload of assessment settings
	loader.OnChange(func(c *config.Config) {
		next, err := c.Assessment.ToAttendance()
		if err == nil {
			err = engine.SetConfig(next)
		}
		if err != nil {
			logger.Warn("ignoring reloaded assessment config", "error", err)
			return
		}
		logger.Info("assessment config updated", "required_hours", next.RequiredHoursPerMonth.String())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		return err
	}
	defer stopWatch()

	handler := api.NewHandler(store, engine, logger)
	if redisClient != nil {
		handler.Cache = redisClient
	}
	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.Server.AllowedOrigins})

	scheduler := api.NewRecalculationScheduler(engine, store, logger)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.Scheduler.Interval
	scheduler.Errors = m
	for _, b := range cfg.Scheduler.Businesses {
		scheduler.Businesses = append(scheduler.Businesses, generic.BusinessID(b))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", cfg.Server.DBPath, "cache", redisClient != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
