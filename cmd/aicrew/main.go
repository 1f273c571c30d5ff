// aicrew runs the task-processing service: it consumes task payloads from
// the redis queue, routes each one to the matching AI employee, and records
// outcomes on the board.
//
// Usage:
//
//	aicrew serve                       # start the service
//	aicrew serve --config config.yaml  # with a config file
//	aicrew version                     # print version info
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/aicrew/agent"
	"github.com/BaSui01/aicrew/board"
	"github.com/BaSui01/aicrew/config"
	"github.com/BaSui01/aicrew/crew"
	"github.com/BaSui01/aicrew/dispatch"
	"github.com/BaSui01/aicrew/internal/metrics"
	"github.com/BaSui01/aicrew/llm"
	"github.com/BaSui01/aicrew/memory"
	"github.com/BaSui01/aicrew/queue"
	"github.com/BaSui01/aicrew/workflow"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "version":
		fmt.Printf("aicrew %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`aicrew - capability-routed AI task processing

Commands:
  serve      Start the service
  version    Print version information
  help       Show this help`)
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := serve(cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func serve(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting aicrew",
		zap.String("version", Version),
		zap.String("redis", cfg.Redis.Addr),
		zap.String("database", cfg.Database.Path),
		zap.Int("max_concurrent", cfg.Dispatch.MaxConcurrent),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}

	store, err := board.Open(cfg.Database.Path, logger)
	if err != nil {
		return err
	}

	provider, err := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, llm.WithLogger(logger))
	if err != nil {
		return err
	}
	limited := llm.NewRateLimited(provider, cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)

	memStore := memory.NewRedisStore(redisClient, logger, memory.WithKeyPrefix(cfg.Redis.MemoryPrefix))

	steps := workflow.NewSteps(limited, memStore, nil, logger)
	graphs, err := workflow.DefaultGraphs(steps)
	if err != nil {
		return err
	}
	engine, err := workflow.NewEngine(logger, graphs...)
	if err != nil {
		return err
	}

	registry, err := crew.BuildRegistry(graphs, logger)
	if err != nil {
		return err
	}
	validator := agent.NewValidator(registry, logger)

	collector := metrics.NewCollector("aicrew", nil)

	dispatcher, err := dispatch.New(validator, engine, store, collector, cfg.Dispatch.MaxConcurrent, logger)
	if err != nil {
		return err
	}

	metricsServer := startMetricsServer(cfg.Dispatch.MetricsAddr, logger)

	consumer := queue.NewConsumer(redisClient, cfg.Redis.QueueKey, logger)
	err = consumer.Run(ctx, dispatcher.Handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped unexpectedly", zap.Error(err))
	}

	logger.Info("shutting down, draining in-flight tasks")
	drained := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		logger.Info("all in-flight tasks finished")
	case <-time.After(cfg.Dispatch.ShutdownTimeout):
		logger.Warn("shutdown timeout reached with tasks still running")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}
	return nil
}

func startMetricsServer(addr string, logger *zap.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))
	return srv
}
