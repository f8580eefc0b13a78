package configsource

import "time"

// Retry calls f every interval until it returns nil or stopc is closed,
// in which case Retry returns f's last error. It lets a caller keep
// retrying a config reload without hand-rolling a ticker loop; no code in
// this module calls it.
func Retry(interval time.Duration, stopc <-chan struct{}, f func() error) error {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		err := f()
		if err == nil {
			return nil
		}

		select {
		case <-tick.C:
		case <-stopc:
			return err
		}
	}
}
