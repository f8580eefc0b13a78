package configsource

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

var (
	reloadOnce  sync.Once
	reloadGroup *singleflight.Group
)

// defaultReloadGroup returns the package-wide singleflight.Group used to
// coalesce concurrent config reloads of the same file path: if a SIGHUP
// handler and a periodic reload timer both fire at once, only one of
// them actually re-reads the file, and both callers observe its result.
func defaultReloadGroup() *singleflight.Group {
	reloadOnce.Do(func() { reloadGroup = new(singleflight.Group) })
	return reloadGroup
}

// ReloadFile behaves like LoadFile, but concurrent calls for the same
// path are collapsed into a single viper read.
func ReloadFile[T any](path string) (T, error) {
	v, err, _ := defaultReloadGroup().Do(path, func() (interface{}, error) {
		return LoadFile[T](path)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
