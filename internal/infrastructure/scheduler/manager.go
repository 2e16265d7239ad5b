// Package scheduler runs background jobs on a single gocron scheduler.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/docsphere/docsphere/internal/shared/biztime"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

const (
	jobUsageReport = "usage-daily-report"
	jobHealthCheck = "database-health-check"
)

// UsageReporter summarizes the previous business day's usage.
type UsageReporter interface {
	ReportDailyUsage(ctx context.Context) error
}

// HealthChecker probes a backing dependency.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Check(ctx context.Context) error { return f(ctx) }

// SchedulerManager owns the process-wide scheduler. Cron expressions are
// evaluated in the business timezone.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterUsageReportJob runs the daily usage report at hour:00 business
// time.
func (m *SchedulerManager) RegisterUsageReportJob(reporter UsageReporter, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("invalid report hour %d", hour)
	}

	_, err := m.scheduler.NewJob(
		gocron.CronJob(fmt.Sprintf("0 %d * * *", hour), false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.executeUsageReport(ctx, reporter)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("usage", "report"),
		gocron.WithName(jobUsageReport),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered usage report job", "hour", hour)
	return nil
}

func (m *SchedulerManager) executeUsageReport(ctx context.Context, reporter UsageReporter) {
	startTime := biztime.NowUTC()
	if err := reporter.ReportDailyUsage(ctx); err != nil {
		m.logger.Errorw("daily usage report failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	m.logger.Debugw("daily usage report completed", "duration", time.Since(startTime))
}

// RegisterHealthCheckJob probes checker every interval, starting now.
func (m *SchedulerManager) RegisterHealthCheckJob(checker HealthChecker, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid health check interval %s", interval)
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := checker.Check(ctx); err != nil {
				m.logger.Errorw("database health check failed", "error", err)
				return
			}
			m.logger.Debugw("database health check passed")
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("health"),
		gocron.WithName(jobHealthCheck),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered health check job", "interval", interval)
	return nil
}

// Start starts the scheduler. Repeated calls are no-ops.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs and shuts the scheduler down.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	err := m.scheduler.Shutdown()
	m.started = false
	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
