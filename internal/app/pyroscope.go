package app

import (
	"fmt"
	"os"

	"github.com/grafana/pyroscope-go"

	"github.com/relaygate/tbucket/internal/webhook"
)

// startPyroscope begins continuous profiling when
// TBUCKET_PYROSCOPE_ENABLE=true, reporting to the server named by
// TBUCKET_PYROSCOPE_SERVER_ADDRESS.
func startPyroscope() error {
	address := os.Getenv("TBUCKET_PYROSCOPE_SERVER_ADDRESS")
	if address == "" {
		return fmt.Errorf("app: TBUCKET_PYROSCOPE_SERVER_ADDRESS is empty")
	}
	if !webhook.IsValidPyroscopeAddress(address) {
		return fmt.Errorf("app: TBUCKET_PYROSCOPE_SERVER_ADDRESS is invalid: %s", address)
	}

	pyroscope.Start(pyroscope.Config{
		ApplicationName: "tbucket.tbucketd",
		ServerAddress:   address,
		Logger:          pyroscope.StandardLogger,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
	})

	return nil
}
