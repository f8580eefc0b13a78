// Package convert holds small parsing helpers shared by the config
// loader and the CLI flags that accept human-friendly durations.
package convert

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HumanDuration parses a duration that may additionally use a "d" (day)
// unit ahead of whatever time.ParseDuration already understands, e.g.
// "2d3h" or "5d". A bare integer is treated as a nanosecond count, which
// config files commonly emit and time.ParseDuration rejects outright.
func HumanDuration(d string) (time.Duration, error) {
	d = strings.TrimSpace(d)

	// The common case has no "d" unit; try the fast path first.
	if dr, err := time.ParseDuration(d); err == nil {
		return dr, nil
	}

	if idx := strings.Index(d, "d"); idx != -1 {
		days, err := strconv.Atoi(d[:idx])
		if err != nil {
			return 0, fmt.Errorf("convert: invalid day value in %q: %w", d, err)
		}
		dr := time.Hour * 24 * time.Duration(days)
		rest := d[idx+1:]
		if rest == "" {
			return dr, nil
		}
		ndr, err := time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("convert: invalid remainder %q in %q: %w", rest, d, err)
		}
		return dr + ndr, nil
	}

	dv, err := strconv.ParseInt(d, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("convert: invalid duration %q", d)
	}
	return time.Duration(dv), nil
}
