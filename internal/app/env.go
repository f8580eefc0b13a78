package app

import (
	"os"
	"strings"
)

func envEnablePyroscope() bool {
	return strings.ToLower(os.Getenv("TBUCKET_PYROSCOPE_ENABLE")) == "true"
}

func envEnableGoPs() bool {
	return strings.ToLower(os.Getenv("TBUCKET_GOPS_ENABLE")) == "true"
}
