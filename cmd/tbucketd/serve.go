package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/mem"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/relaygate/tbucket"
	"github.com/relaygate/tbucket/internal/app"
	"github.com/relaygate/tbucket/internal/gctuner"
	"github.com/relaygate/tbucket/internal/live"
	"github.com/relaygate/tbucket/internal/logging"
	"github.com/relaygate/tbucket/internal/metrics"
	"github.com/relaygate/tbucket/internal/webhook"
)

func newServeCommand(a *app.App) *cobra.Command {
	var (
		configFile  string
		gcMemLimit  string
		reportEvery time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve a tbucket limiter over HTTP, metrics, and websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(a, configFile, gcMemLimit, reportEvery)
		},
	}

	cmd.Flags().StringVar(&configFile, "config.file", "", "limiter configuration YAML (defaults to a demo limiter)")
	cmd.Flags().StringVar(&gcMemLimit, "gc-mem-limit", "", "soft memory limit (e.g. 512MiB) past which GC is tuned more aggressively")
	cmd.Flags().DurationVar(&reportEvery, "report-interval", 2*time.Second, "how often limiter metrics are sampled into Prometheus gauges")
	return cmd
}

func runServe(a *app.App, configFile, gcMemLimit string, reportEvery time.Duration) error {
	log := a.Logger()

	if gcMemLimit != "" {
		gctuner.SetMemoryThresholdFromHuman(gcMemLimit)
		log.Info("gctuner: dynamic GC tuning enabled", zap.String("limit", gcMemLimit))
	}

	fc, err := loadFileConfig(configFile)
	if err != nil {
		return err
	}
	cfg, err := fc.toConfiguration()
	if err != nil {
		return err
	}

	hub := live.NewHub(log)
	counters := metrics.NewEventCounters()
	promSink := metrics.NewPrometheusSink(counters)

	opts := []tbucket.LimiterOption{
		tbucket.WithEventSink(hub),
		tbucket.WithEventSink(promSink),
	}
	if fc.WebhookURL != "" {
		client := webhook.NewClient(log, false)
		sink, err := webhook.NewSink(fc.WebhookURL, client, log, defaultDialTimeout)
		if err != nil {
			return err
		}
		opts = append(opts, tbucket.WithEventSink(sink))
	}

	limiter := tbucket.NewLimiter(fc.Name, cfg, fc.Tags, opts...)
	a.RegisterLimiter(limiter)

	reporter := metrics.NewReporter()
	ctx := a.Context()
	go reporter.Run(ctx, reportEvery, limiter)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/acquire", acquireHandler(limiter))
	mux.HandleFunc("/status", statusHandler(limiter))

	srv := &http.Server{
		Addr:     fc.ListenAddr,
		Handler:  mux,
		ErrorLog: stdlog.New(logging.NewWriter(log, zapcore.ErrorLevel), "", 0),
	}

	log.Info("tbucketd: serving", zap.String("addr", fc.ListenAddr), zap.String("limiter", fc.Name))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		hub.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// acquireHandler lets an external client exercise Acquire(1) over HTTP,
// honoring request cancellation as the ctx tbucket.Limiter.Acquire
// treats as interruption during its reservation park.
func acquireHandler(l *tbucket.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok := l.Acquire(r.Context(), 1)
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]bool{"granted": false})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"granted": true})
	}
}

// statusResponse is the JSON body tbucketd status polls from /status.
type statusResponse struct {
	Limiter           string  `json:"limiter"`
	AvailablePermits   int64   `json:"available_permits"`
	WaitingGoroutines  int64   `json:"waiting_goroutines"`
	CurrentCycle       int64   `json:"current_cycle"`
	HostMemoryUsedPct  float64 `json:"host_memory_used_pct"`
	GCPercent          uint32  `json:"gc_percent"`
}

func statusHandler(l *tbucket.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := l.Metrics()
		resp := statusResponse{
			Limiter:           l.Name(),
			AvailablePermits:  m.AvailablePermissions,
			WaitingGoroutines: m.WaitingThreads,
			CurrentCycle:      m.CurrentCycleEstimate,
			GCPercent:         gctuner.CurrentGCPercent(),
		}
		if vm, err := mem.VirtualMemory(); err == nil {
			resp.HostMemoryUsedPct = vm.UsedPercent
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
