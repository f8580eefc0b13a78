package tbucket

import "errors"

// ErrInvalidConfiguration is the sentinel wrapped by every error returned
// from NewConfiguration, ChangeTimeout, and ChangeLimitForPeriod. It is the
// only error kind this package raises; capacity exhaustion and interrupted
// waits are reported as plain false return values (Acquire's bool,
// Reserve's ok), never as errors (see the package-level Acquire/Reserve
// docs).
var ErrInvalidConfiguration = errors.New("tbucket: invalid configuration")
