// Package store provides AnalysisStore implementations: an in-memory log
// for development, SQLite and MySQL through database/sql, and PostgreSQL
// through pgxpool.
package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type purger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// janitor periodically deletes records older than the retention window
type janitor struct {
	store     purger
	retention time.Duration
	freq      time.Duration
	logger    *zap.Logger
	now       func() time.Time
	stopCh    chan struct{}
	done      chan struct{}
	once      sync.Once
}

// startJanitor starts the cleanup loop. It returns nil when retention is
// disabled; a nil janitor is safe to stop.
func startJanitor(store purger, retention, freq time.Duration, logger *zap.Logger) *janitor {
	if retention <= 0 || freq <= 0 {
		return nil
	}
	j := &janitor{
		store:     store,
		retention: retention,
		freq:      freq,
		logger:    logger,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go j.run()
	return j
}

func (j *janitor) run() {
	defer close(j.done)
	ticker := time.NewTicker(j.freq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopCh:
			return
		}
	}
}

func (j *janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.freq)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	n, err := j.store.Purge(ctx, cutoff)
	if err != nil {
		j.logger.Error("Failed to purge expired analyses", zap.Error(err))
		return
	}
	j.logger.Debug("Purged expired analyses",
		zap.Int64("purged_count", n),
		zap.Time("cutoff", cutoff))
}

// stop ends the cleanup loop and waits for it to exit
func (j *janitor) stop() {
	if j == nil {
		return
	}
	j.once.Do(func() {
		close(j.stopCh)
		<-j.done
	})
}
