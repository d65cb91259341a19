package infra

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

const executablePollInterval = 5 * time.Second

// MonitorExecutable watches the running binary on disk and signals once
// when its mtime changes, so a deploy can trigger a clean restart.
func MonitorExecutable(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{})
	entry := log.WithField("context", "watchdog")
	go func() {
		defer close(ch)

		path, err := os.Executable()
		if err != nil {
			entry.WithError(err).Warn("cant resolve executable path")
			return
		}
		stat, err := os.Stat(path)
		if err != nil {
			entry.WithError(err).Warn("cant stat executable")
			return
		}
		seen := stat.ModTime()

		ticker := time.NewTicker(executablePollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stat, err := os.Stat(path)
				if err != nil {
					entry.WithError(err).Warn("cant stat executable")
					continue
				}
				if !seen.Equal(stat.ModTime()) {
					ch <- struct{}{}
					return
				}
			}
		}
	}()
	return ch
}
