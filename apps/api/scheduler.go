package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/campaign"
	"github.com/Reema362/avocop/core/enrollment"
)

// startScheduler runs the periodic sweeps: overdue enrollments and expired
// campaigns. Returns a stopped-at-shutdown cron, or nil when disabled.
func startScheduler(conf *core.Config, logger core.Logger, enrollSvc *enrollment.Service, campaignSvc *campaign.Service) *cron.Cron {
	if conf.Scheduler.Disabled {
		logger.Info("scheduler disabled")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(conf.Scheduler.SweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if n, err := enrollSvc.SweepOverdue(ctx); err != nil {
			logger.Error("sweeping overdue enrollments", err)
		} else if n > 0 {
			logger.Info(fmt.Sprintf("marked %d enrollments overdue", n))
		}

		if n, err := campaignSvc.SweepExpired(ctx); err != nil {
			logger.Error("sweeping expired campaigns", err)
		} else if n > 0 {
			logger.Info(fmt.Sprintf("completed %d expired campaigns", n))
		}

		if n := enrollSvc.EvictIdleSessions(enrollment.DefaultSessionIdleTimeout); n > 0 {
			logger.Info(fmt.Sprintf("evicted %d idle playback sessions", n))
		}
	})
	if err != nil {
		logger.Error(fmt.Sprintf("scheduling sweep %q: %v", conf.Scheduler.SweepSpec, err), err)
		return nil
	}

	c.Start()
	logger.Info(fmt.Sprintf("scheduler started: sweep %q", conf.Scheduler.SweepSpec))
	return c
}
