package app

// Config holds the optional diagnostics/profiling toggles tbucketd
// reads from flags and environment variables before Start.
type Config struct {
	enableGoPs      bool
	enablePyroscope bool
	poolNumber      int // goroutine pool size for the bench subcommand
}

// DefaultConfig returns the toggles tbucketd starts with before flags
// and environment variables are applied.
func DefaultConfig() *Config {
	return &Config{
		enableGoPs:      false,
		enablePyroscope: false,
		poolNumber:      10,
	}
}

func (c *Config) setGoPs(enableGoPs bool) *Config {
	c.enableGoPs = enableGoPs
	return c
}

func (c *Config) setPyroscope(enablePyroscope bool) *Config {
	c.enablePyroscope = enablePyroscope
	return c
}

func (c *Config) setPoolNumber(poolNumber int) *Config {
	c.poolNumber = poolNumber
	return c
}

// PoolNumber is the configured bench worker-pool size.
func (c *Config) PoolNumber() int { return c.poolNumber }
