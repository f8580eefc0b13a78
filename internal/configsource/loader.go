// Package configsource loads the YAML configuration a tbucketd process
// starts from, and offers the small collaborators (retry, singleflight)
// that external calls made while loading or reloading it should use.
package configsource

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// ErrNoConfigFile is returned by LoadFile when path is empty.
var ErrNoConfigFile = errors.New("configsource: no config file specified")

// LoadFile reads and unmarshals the YAML file at path into a fresh T. It
// uses a private viper.Viper instance rather than the package-level
// singleton, so loading one limiter's config can't be perturbed by
// another goroutine loading a different file concurrently.
func LoadFile[T any](path string) (T, error) {
	var cfg T
	if path == "" {
		return cfg, ErrNoConfigFile
	}

	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("configsource: reading config file: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("configsource: unmarshalling config: %w", err)
	}
	return cfg, nil
}
