// Package maintenance schedules the background jobs of the server: mail
// dispatch and the sweeps that keep login tokens, the audit trail and the SQL
// cache from growing without bound.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/pkg/logger"
	"github.com/clothingloop/server/pkg/metrics"
)

// Job names, also used as metric labels.
const (
	JobMailDispatch = "mail_dispatch"
	JobLoginTokens  = "login_tokens"
	JobAuditPrune   = "audit_prune"
	JobCachePurge   = "cache_purge"
)

const (
	defaultAuditRetentionDays = 90
	jobTimeout                = 5 * time.Minute
)

var defaultSchedules = map[string]string{
	JobMailDispatch: "@every 30s",
	JobLoginTokens:  "@hourly",
	JobAuditPrune:   "@daily",
	JobCachePurge:   "@every 15m",
}

// MailDispatcher drains the mail queue.
type MailDispatcher interface {
	DispatchPending(ctx context.Context) (mailqueue.DispatchResult, error)
}

// AuditPruner removes audit entries past their retention window.
type AuditPruner interface {
	CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

// CachePurger drops expired entries from the SQL cache fallback.
type CachePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// job is one unit of work. run reports how many rows or mails it handled.
type job struct {
	name string
	run  func(ctx context.Context) (int64, error)
}

// Cleaner runs the enabled jobs on a cron schedule, or all at once via RunOnce.
type Cleaner struct {
	db         *gorm.DB
	dispatcher MailDispatcher
	audit      AuditPruner
	cache      CachePurger
	cron       *cron.Cron
	now        func() time.Time
	log        *zap.Logger
	retention  int
	schedules  map[string]string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cl *Cleaner) {
		if c != nil {
			cl.cron = c
		}
	}
}

// WithNow overrides the clock used to find expired login tokens.
func WithNow(now func() time.Time) Option {
	return func(cl *Cleaner) {
		if now != nil {
			cl.now = now
		}
	}
}

// WithMailDispatcher enables the mail dispatch job.
func WithMailDispatcher(dispatcher MailDispatcher) Option {
	return func(cl *Cleaner) { cl.dispatcher = dispatcher }
}

// WithAuditPruner enables audit retention.
func WithAuditPruner(audit AuditPruner) Option {
	return func(cl *Cleaner) { cl.audit = audit }
}

// WithCachePurger enables the expired cache entry sweep.
func WithCachePurger(purger CachePurger) Option {
	return func(cl *Cleaner) { cl.cache = purger }
}

// WithAuditRetentionDays sets how many days of audit trail are kept.
func WithAuditRetentionDays(days int) Option {
	return func(cl *Cleaner) {
		if days > 0 {
			cl.retention = days
		}
	}
}

// WithSchedule overrides the cron spec of one job. Empty specs are ignored.
func WithSchedule(jobName, spec string) Option {
	return func(cl *Cleaner) {
		if spec != "" {
			cl.schedules[jobName] = spec
		}
	}
}

// NewCleaner constructs a Cleaner. Jobs without a dependency are skipped.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cl := &Cleaner{
		db:        db,
		now:       time.Now,
		retention: defaultAuditRetentionDays,
		schedules: make(map[string]string, len(defaultSchedules)),
		log:       logger.WithModule("maintenance"),
	}
	for name, spec := range defaultSchedules {
		cl.schedules[name] = spec
	}
	for _, opt := range opts {
		opt(cl)
	}
	if cl.cron == nil {
		cl.cron = cron.New(
			cron.WithLogger(cron.DiscardLogger),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		)
	}
	return cl
}

// jobs lists the enabled jobs in the order RunOnce executes them. Mail goes
// first so a final drain at shutdown is not delayed by the sweeps.
func (c *Cleaner) jobs() []job {
	var jobs []job
	if c.dispatcher != nil {
		jobs = append(jobs, job{JobMailDispatch, func(ctx context.Context) (int64, error) {
			result, err := c.dispatcher.DispatchPending(ctx)
			return int64(result.Sent), err
		}})
	}
	if c.db != nil {
		jobs = append(jobs, job{JobLoginTokens, func(ctx context.Context) (int64, error) {
			return CleanupLoginTokens(ctx, c.db, c.now())
		}})
	}
	if c.audit != nil && c.retention > 0 {
		jobs = append(jobs, job{JobAuditPrune, func(ctx context.Context) (int64, error) {
			return c.audit.CleanupOlderThan(ctx, c.retention)
		}})
	}
	if c.cache != nil {
		jobs = append(jobs, job{JobCachePurge, c.cache.PurgeExpired})
	}
	return jobs
}

// Start registers the enabled jobs and launches the scheduler. Runs of the
// same job never overlap.
func (c *Cleaner) Start() error {
	jobs := c.jobs()
	for _, j := range jobs {
		if _, err := c.cron.AddFunc(c.schedules[j.name], func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			_ = c.execute(ctx, j)
		}); err != nil {
			return fmt.Errorf("maintenance: schedule %s: %w", j.name, err)
		}
	}
	if len(jobs) > 0 {
		c.cron.Start()
	}
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	return c.cron.Stop()
}

// RunOnce executes every enabled job in turn and joins their errors. It backs
// the -drain-mail mode and the final flush at shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs error
	for _, j := range c.jobs() {
		errs = multierr.Append(errs, c.execute(ctx, j))
	}
	return errs
}

func (c *Cleaner) execute(ctx context.Context, j job) error {
	handled, err := j.run(ctx)
	if err != nil {
		metrics.MaintenanceRuns.WithLabelValues(j.name, "error").Inc()
		c.log.Warn("maintenance job failed", zap.String("job", j.name), zap.Error(err))
		return err
	}
	metrics.MaintenanceRuns.WithLabelValues(j.name, "ok").Inc()
	if handled > 0 {
		c.log.Debug("maintenance job finished", zap.String("job", j.name), zap.Int64("handled", handled))
	}
	return nil
}

// CleanupLoginTokens removes expired or consumed login tokens.
func CleanupLoginTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup login tokens: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&models.LoginToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup login tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
