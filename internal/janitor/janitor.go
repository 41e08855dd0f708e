// Package janitor runs scheduled housekeeping: pruning outbox rows that
// were already published to Kafka.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nkamath/calshare/internal/outbox"
)

type Janitor struct {
	outbox    *outbox.Repository
	logger    *slog.Logger
	schedule  string
	retention time.Duration
	cron      *cron.Cron
}

// New builds a janitor on a cron schedule. A published outbox row is
// kept for retention before it becomes eligible for deletion, leaving a
// window for debugging delivery issues.
func New(repo *outbox.Repository, logger *slog.Logger, schedule string, retention time.Duration) *Janitor {
	if schedule == "" {
		schedule = "@hourly"
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Janitor{
		outbox:    repo,
		logger:    logger,
		schedule:  schedule,
		retention: retention,
	}
}

// Start schedules the purge job and returns. Stop when ctx is done is
// the caller's job via Stop.
func (j *Janitor) Start(ctx context.Context) error {
	j.cron = cron.New()
	_, err := j.cron.AddFunc(j.schedule, func() { j.purge(ctx) })
	if err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

func (j *Janitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

func (j *Janitor) purge(ctx context.Context) {
	cutoff := time.Now().Add(-j.retention)
	deleted, err := j.outbox.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("outbox purge failed", "err", err)
		return
	}
	if deleted > 0 {
		j.logger.Info("outbox purged", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
}
