package app

import (
	"github.com/google/gops/agent"
)

// loadAgentByConfig starts the optional gops/pyroscope diagnostics
// agents, each gated on both the Config toggle (set through an App
// Option) and its own environment variable, matching the opt-in pattern the
// teacher uses for its own profiling hooks.
func loadAgentByConfig(cfg *Config) error {
	if cfg.enableGoPs && envEnableGoPs() {
		if err := agent.Listen(agent.Options{}); err != nil {
			return err
		}
	}

	if cfg.enablePyroscope && envEnablePyroscope() {
		if err := startPyroscope(); err != nil {
			return err
		}
	}

	return nil
}
