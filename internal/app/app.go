// Package app is tbucketd's process bootstrap: it builds the default
// logger, starts the optional diagnostics agents, and holds the set of
// named Limiters the running process serves. It is grounded on the
// teacher's Nmq component manager (pkg/nmq/nmq.go, cmd/nmq/nmq.go), with
// the component-registry machinery stripped out — tbucketd has exactly
// one kind of thing to manage, a named Limiter, not an open set of
// pluggable components.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/relaygate/tbucket"
	"github.com/relaygate/tbucket/internal/logging"
)

// App is the process-wide state tbucketd's subcommands share: the
// logger, the root context, and the Limiters constructed for this run.
// Per spec.md's "no registries" non-goal, this is an application-level
// convenience for a CLI that serves several named limiters at once, not
// a capability tbucket itself exposes — each Limiter is still
// constructed and owned by its caller (this App).
type App struct {
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	rootCmd *cobra.Command
	wg      sync.WaitGroup
	cfg     *Config

	mu       sync.RWMutex
	limiters map[string]*tbucket.Limiter
}

// New constructs an App applying opts over sensible defaults. Init must
// be called before Start.
func New(opts ...Option) *App {
	a := &App{
		cfg:      DefaultConfig(),
		limiters: make(map[string]*tbucket.Limiter),
	}
	for _, opt := range opts {
		opt.apply(a)
	}
	return a
}

// Init fills in anything not supplied via Option: a production zap
// logger, a cancelable root context, and the cobra root command every
// tbucketd subcommand attaches to.
func (a *App) Init() error {
	if a.logger == nil {
		log, err := logging.NewLogger(
			logging.WithLevel(zapcore.InfoLevel),
			logging.WithMaxSizeMB(50),
			logging.WithMaxBackups(2),
			logging.WithMaxAgeDays(30),
			logging.WithCompress(true),
			logging.WithFilename("./log/tbucketd.log"),
			logging.WithLevelKey("level"),
			logging.WithStdoutMirror(true),
		)
		if err != nil {
			return fmt.Errorf("app: create logger: %w", err)
		}
		a.logger = log
	}

	if a.ctx == nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.ctx, a.cancel = ctx, cancel
	}

	if a.rootCmd == nil {
		a.rootCmd = &cobra.Command{
			Use:   "tbucketd",
			Short: "tbucketd serves and drives tbucket rate limiters",
			RunE: func(cmd *cobra.Command, args []string) error {
				return cmd.Help()
			},
		}
	}

	a.rootCmd.PersistentFlags().String("config.file", "tbucket.yaml", "limiter configuration file")
	if err := viper.BindPFlag("configFile", a.rootCmd.PersistentFlags().Lookup("config.file")); err != nil {
		return fmt.Errorf("app: bind config.file flag: %w", err)
	}
	viper.SetConfigType("yaml")

	return nil
}

// AddCommand attaches subcommands to the root command; call after Init.
func (a *App) AddCommand(cmds ...*cobra.Command) {
	a.rootCmd.AddCommand(cmds...)
}

// Start launches the diagnostics agents this run's Config opted into.
func (a *App) Start() error {
	return loadAgentByConfig(a.cfg)
}

// Stop cancels the App's root context, signalling every goroutine
// started from it (HTTP servers, the bench worker pool, reporters) to
// wind down.
func (a *App) Stop() {
	a.cancel()
}

// Execute runs the configured cobra command tree to completion.
func (a *App) Execute() error {
	if err := a.Start(); err != nil {
		return fmt.Errorf("app: start: %w", err)
	}
	defer a.Stop()
	return a.rootCmd.ExecuteContext(a.ctx)
}

// RegisterLimiter adds l to the set this App serves, addressable by
// name from the status/watch/bench subcommands.
func (a *App) RegisterLimiter(l *tbucket.Limiter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.limiters[l.Name()] = l
}

// Limiter looks up a previously registered Limiter by name.
func (a *App) Limiter(name string) (*tbucket.Limiter, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	l, ok := a.limiters[name]
	return l, ok
}

// Limiters returns every currently registered Limiter.
func (a *App) Limiters() []*tbucket.Limiter {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*tbucket.Limiter, 0, len(a.limiters))
	for _, l := range a.limiters {
		out = append(out, l)
	}
	return out
}

// Logger returns the App's zap logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Context returns the App's root context.
func (a *App) Context() context.Context { return a.ctx }

// Config returns the App's diagnostics/bench configuration.
func (a *App) Config() *Config { return a.cfg }

// WgAdd and WaitGroup let a subcommand register background goroutines
// (the websocket hub's run loop, a metrics reporter) the App should
// wait for on shutdown.
func (a *App) WgAdd(delta int) { a.wg.Add(delta) }
func (a *App) WaitGroup()      { a.wg.Wait() }
