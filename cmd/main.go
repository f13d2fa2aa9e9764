// Command rehearse runs the interview rehearsal service: an HTTP API that
// drives interview sessions, captures spoken answers, uploads them to the
// remote analysis backend, and serves derived feedback once it is ready.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/okian/rehearse/internal/adapters/backend"
	"github.com/okian/rehearse/internal/adapters/capture"
	"github.com/okian/rehearse/internal/adapters/http/api"
	"github.com/okian/rehearse/internal/adapters/notify"
	app "github.com/okian/rehearse/internal/app"
	"github.com/okian/rehearse/internal/config"
	"github.com/okian/rehearse/pkg/logger"
	"github.com/okian/rehearse/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second

	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Optional .env file for local development. Real environments set
	// REHEARSE_* variables directly.
	_ = godotenv.Load()

	// Unregister default collectors to avoid conflicts with our custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get().Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log level, using info", logger.String("level", cfg.LogLevel))
		_ = logger.SetLevelString("info")
	}

	remote := backend.New(cfg.BackendBaseURL,
		backend.WithTimeout(time.Duration(cfg.BackendTimeoutMS)*time.Millisecond),
		backend.WithRetry(cfg.UploadMaxAttempts, time.Duration(cfg.UploadRetryDelayMS)*time.Millisecond),
	)

	device := capture.NewDevice(
		capture.WithSource(cfg.CaptureSource),
		capture.WithChunkInterval(time.Duration(cfg.CaptureChunkMS)*time.Millisecond),
		capture.WithMimeType(cfg.CaptureMime),
	)

	notifCenter := notify.NewCenter()

	svc := app.New(
		app.WithBackend(remote),
		app.WithDevice(device),
		app.WithNotifyCenter(notifCenter),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithCountdownSeconds(cfg.CountdownSeconds),
		app.WithMaxRecordingSeconds(cfg.MaxRecordingSeconds),
		app.WithPollAttempts(cfg.PollAttempts),
		app.WithPollInterval(time.Duration(cfg.PollIntervalMS)*time.Millisecond),
		app.WithLogger(logger.Get().Named("service")),
	)

	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "http server listening", logger.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "http server shutdown failed", logger.Error(err))
	}
}

// startSystemMetricsUpdater periodically refreshes process-level gauges.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

// startServiceMetricsUpdater periodically refreshes service-level gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	updateServiceMetrics(svc)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if sessions, ok := stats["activeSessions"].(int); ok {
		metrics.UpdateActiveSessions(sessions)
	}
	if size, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(size)
	}
	if workers, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workers)
	}
}
