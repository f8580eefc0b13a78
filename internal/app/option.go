package app

import (
	"context"

	"go.uber.org/zap"
)

// An Option configures an App at construction time.
type Option interface {
	apply(*App)
}

// optionFunc wraps a func so it satisfies the Option interface.
type optionFunc func(*App)

func (f optionFunc) apply(a *App) { f(a) }

// SetContext overrides the App's root context.
func SetContext(ctx context.Context) Option {
	return optionFunc(func(a *App) { a.ctx = ctx })
}

// SetCancel overrides the App's cancel function, paired with SetContext.
func SetCancel(cancel context.CancelFunc) Option {
	return optionFunc(func(a *App) { a.cancel = cancel })
}

// SetLogger overrides the App's zap logger.
func SetLogger(logger *zap.Logger) Option {
	return optionFunc(func(a *App) { a.logger = logger })
}

// SetEnableGoPs toggles the gops diagnostics agent (still gated by its
// own environment variable at Start).
func SetEnableGoPs(enableGoPs bool) Option {
	return optionFunc(func(a *App) { a.cfg.setGoPs(enableGoPs) })
}

// SetEnablePyroscope toggles continuous profiling (still gated by its
// own environment variable at Start).
func SetEnablePyroscope(enablePyroscope bool) Option {
	return optionFunc(func(a *App) { a.cfg.setPyroscope(enablePyroscope) })
}

// SetPoolNumber sets the goroutine pool size the bench subcommand uses.
func SetPoolNumber(n int) Option {
	return optionFunc(func(a *App) { a.cfg.setPoolNumber(n) })
}
