package main

import (
	"time"

	"github.com/relaygate/tbucket"
	"github.com/relaygate/tbucket/internal/configsource"
	"github.com/relaygate/tbucket/internal/convert"
)

// fileConfig is the shape a tbucketd YAML configuration file unmarshals
// into; durations are strings so operators can write "100ms"/"1d" rather
// than raw nanosecond counts.
type fileConfig struct {
	Name           string            `mapstructure:"name"`
	RefreshPeriod  string            `mapstructure:"refresh_period"`
	LimitForPeriod int               `mapstructure:"limit_for_period"`
	AcquireTimeout string            `mapstructure:"acquire_timeout"`
	Tags           map[string]string `mapstructure:"tags"`
	ListenAddr     string            `mapstructure:"listen_addr"`
	WebhookURL     string            `mapstructure:"webhook_url"`
}

func (fc fileConfig) toConfiguration() (tbucket.Configuration, error) {
	refresh, err := convert.HumanDuration(fc.RefreshPeriod)
	if err != nil {
		return tbucket.Configuration{}, err
	}
	timeout, err := convert.HumanDuration(fc.AcquireTimeout)
	if err != nil {
		return tbucket.Configuration{}, err
	}
	return tbucket.NewConfiguration(refresh, fc.LimitForPeriod, timeout)
}

// loadFileConfig reads path via viper (internal/configsource), defaulting
// a missing path to an in-memory, demo-friendly configuration so `serve`
// works with zero setup.
func loadFileConfig(path string) (fileConfig, error) {
	if path == "" {
		return fileConfig{
			Name:           "default",
			RefreshPeriod:  "1s",
			LimitForPeriod: 10,
			AcquireTimeout: "200ms",
			ListenAddr:     ":9090",
		}, nil
	}
	return configsource.LoadFile[fileConfig](path)
}

const defaultDialTimeout = 2 * time.Second
