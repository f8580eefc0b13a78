package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relaygate/tbucket"
	"github.com/relaygate/tbucket/internal/app"
	"github.com/relaygate/tbucket/internal/stats"
)

// stringLabel adapts a plain string to the fmt.Stringer a
// stats.TimerGroup keys its timers by.
type stringLabel string

func (s stringLabel) String() string { return string(s) }

func newBenchCommand(a *app.App) *cobra.Command {
	var (
		workers  int
		duration time.Duration
		refresh  time.Duration
		limit    int
		timeout  time.Duration
		poolSize int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "load-test an in-process limiter with many concurrent Acquire callers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(a, workers, duration, refresh, limit, timeout, poolSize)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 16, "number of concurrent Acquire callers")
	cmd.Flags().DurationVar(&duration, "duration", 5*time.Second, "how long to run the benchmark")
	cmd.Flags().DurationVar(&refresh, "refresh", 100*time.Millisecond, "limiter refresh period")
	cmd.Flags().IntVar(&limit, "limit", 50, "limiter permits per refresh period")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "acquire timeout per call")
	cmd.Flags().IntVar(&poolSize, "pool-size", 0, "bounded goroutine pool size (0: use the app default)")
	return cmd
}

func runBench(a *app.App, workers int, duration, refresh time.Duration, limit int, timeout time.Duration, poolSize int) error {
	log := a.Logger()
	cfg, err := tbucket.NewConfiguration(refresh, limit, timeout)
	if err != nil {
		return err
	}
	limiter := tbucket.NewLimiter("bench", cfg, nil)

	var success, failure int64
	limiter.OnSuccess(func(tbucket.SuccessEvent) { atomic.AddInt64(&success, 1) })
	limiter.OnFailure(func(tbucket.FailureEvent) { atomic.AddInt64(&failure, 1) })

	if poolSize <= 0 {
		poolSize = a.Config().PoolNumber()
		if poolSize <= 0 {
			poolSize = workers
		}
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return err
	}
	defer pool.Release()

	timer := stats.NewTimerGroup().GetTimer(stringLabel("bench"))
	timer.Start()

	ctx, cancel := context.WithTimeout(a.Context(), duration)
	defer cancel()

	var wg sync.WaitGroup
	g, _ := errgroup.WithContext(ctx)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return pool.Submit(func() {
				defer wg.Done()
				for ctx.Err() == nil {
					limiter.Acquire(ctx, 1)
				}
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	wg.Wait()
	timer.Stop()

	total := atomic.LoadInt64(&success) + atomic.LoadInt64(&failure)
	rate := float64(total) / timer.Duration()

	color.Green("bench: %d granted", success)
	color.Red("bench: %d refused", failure)
	color.Cyan("bench: %.1f acquire/sec over %.1fs", rate, timer.Duration())

	log.Info("bench complete",
		zap.Int64("granted", success),
		zap.Int64("refused", failure),
		zap.Float64("acquire_per_sec", rate))
	return nil
}
