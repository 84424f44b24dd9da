package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/shelfkeeper/internal/circulation"
)

// newSweeper schedules the overdue sweep. It returns nil when schedule is
// empty. Overlapping runs are skipped.
func newSweeper(engine *circulation.Engine, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		res, err := engine.SweepOverdue(ctx, time.Now())
		if err != nil {
			slog.Error("Scheduled sweep failed", "error", err)
			return
		}
		slog.Info("Scheduled sweep finished", "transitioned", res.Transitioned, "skipped", res.Skipped)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
