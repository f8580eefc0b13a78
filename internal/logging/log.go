// Package logging builds the zap logger tbucketd uses, writing JSON
// records to a lumberjack-rotated file and optionally mirroring to
// stdout.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// config is the internal state an Option mutates; NewLogger never
// exposes it directly, only through the With* constructors below.
type config struct {
	rotate         *lumberjack.Logger // rotated file sink
	level          zapcore.Level      // minimum level that reaches the core
	levelKey       string             // JSON field name for the level
	mirrorToStdout bool               // also tee to os.Stdout
}

// Option configures a logger built by NewLogger.
type Option interface {
	apply(*config)
}

// optionFunc wraps a func so it satisfies the Option interface.
type optionFunc func(*config)

func (f optionFunc) apply(c *config) {
	f(c)
}

// WithFilename sets the rotated log file's path.
func WithFilename(filename string) Option {
	return optionFunc(func(c *config) {
		c.rotate.Filename = filename
	})
}

// WithMaxSizeMB sets the size in megabytes a log file reaches before it
// is rotated.
func WithMaxSizeMB(maxSizeMB int) Option {
	return optionFunc(func(c *config) {
		c.rotate.MaxSize = maxSizeMB
	})
}

// WithMaxAgeDays sets how many days a rotated file is retained.
func WithMaxAgeDays(maxAgeDays int) Option {
	return optionFunc(func(c *config) {
		c.rotate.MaxAge = maxAgeDays
	})
}

// WithMaxBackups caps the number of rotated files kept alongside the
// active one.
func WithMaxBackups(maxBackups int) Option {
	return optionFunc(func(c *config) {
		c.rotate.MaxBackups = maxBackups
	})
}

// WithCompress enables gzip compression of rotated-out files.
func WithCompress(compress bool) Option {
	return optionFunc(func(c *config) {
		c.rotate.Compress = compress
	})
}

// WithLevel sets the minimum level the logger emits.
func WithLevel(level zapcore.Level) Option {
	return optionFunc(func(c *config) {
		c.level = level
	})
}

// WithLevelKey overrides the JSON field name used for the level
// ("level" by default under zap's production encoder).
func WithLevelKey(levelKey string) Option {
	return optionFunc(func(c *config) {
		c.levelKey = levelKey
	})
}

// WithStdoutMirror additionally writes every record to os.Stdout,
// useful when tbucketd is attached to a terminal rather than running
// under a supervisor that collects the log file.
func WithStdoutMirror(mirror bool) Option {
	return optionFunc(func(c *config) {
		c.mirrorToStdout = mirror
	})
}

// NewLogger builds a production-shaped zap.Logger: JSON-encoded,
// ISO8601 timestamps, caller information, backed by a lumberjack-rotated
// file and optionally mirrored to stdout.
func NewLogger(opts ...Option) (*zap.Logger, error) {
	c := &config{
		rotate: &lumberjack.Logger{},
	}
	for _, opt := range opts {
		opt.apply(c)
	}

	fileSyncer := zapcore.AddSync(c.rotate)

	var writeSyncer zapcore.WriteSyncer
	if c.mirrorToStdout {
		writeSyncer = zapcore.NewMultiWriteSyncer(fileSyncer, zapcore.AddSync(os.Stdout))
	} else {
		writeSyncer = zapcore.NewMultiWriteSyncer(fileSyncer)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if c.levelKey != "" {
		encoderConfig.LevelKey = c.levelKey
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		writeSyncer,
		c.level,
	)

	return zap.New(core, zap.AddCaller()), nil
}
