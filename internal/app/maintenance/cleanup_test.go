package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	dbtest "github.com/clothingloop/server/internal/database/testutil"
	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/pkg/metrics"
)

type stubDispatcher struct {
	calls int
	err   error
}

func (s *stubDispatcher) DispatchPending(context.Context) (mailqueue.DispatchResult, error) {
	s.calls++
	return mailqueue.DispatchResult{}, s.err
}

type stubPurger struct {
	calls int
}

func (s *stubPurger) PurgeExpired(context.Context) (int64, error) {
	s.calls++
	return 0, nil
}

type stubPruner struct {
	retention int
	err       error
}

func (s *stubPruner) CleanupOlderThan(_ context.Context, days int) (int64, error) {
	s.retention = days
	return 0, s.err
}

func TestCleanupLoginTokens(t *testing.T) {
	db := dbtest.MustOpenTestDB(t, dbtest.WithAutoMigrate())
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	used := now.Add(-time.Minute)

	tokens := []models.LoginToken{
		{AccountID: "a1", TokenHash: "expired", ExpiresAt: now.Add(-time.Hour)},
		{AccountID: "a1", TokenHash: "used", ExpiresAt: now.Add(time.Hour), UsedAt: &used},
		{AccountID: "a1", TokenHash: "active", ExpiresAt: now.Add(time.Hour)},
	}
	for i := range tokens {
		require.NoError(t, db.Create(&tokens[i]).Error)
	}

	removed, err := CleanupLoginTokens(context.Background(), db, now)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	var remaining []models.LoginToken
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "active", remaining[0].TokenHash)
}

func TestCleanupLoginTokensRequiresDB(t *testing.T) {
	_, err := CleanupLoginTokens(context.Background(), nil, time.Now())
	require.Error(t, err)
}

func TestCleanerRunOnce(t *testing.T) {
	db := dbtest.MustOpenTestDB(t, dbtest.WithAutoMigrate())
	now := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.LoginToken{
		AccountID: "a1",
		TokenHash: "expired",
		ExpiresAt: now.Add(-time.Hour),
	}).Error)

	dispatcher := &stubDispatcher{}
	pruner := &stubPruner{}
	purger := &stubPurger{}
	c := NewCleaner(db,
		WithNow(func() time.Time { return now }),
		WithMailDispatcher(dispatcher),
		WithAuditPruner(pruner),
		WithCachePurger(purger),
		WithAuditRetentionDays(7),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	okRuns := testutil.ToFloat64(metrics.MaintenanceRuns.WithLabelValues(JobLoginTokens, "ok"))
	require.NoError(t, c.RunOnce(context.Background()))
	require.Equal(t, okRuns+1, testutil.ToFloat64(metrics.MaintenanceRuns.WithLabelValues(JobLoginTokens, "ok")))
	require.Equal(t, 1, dispatcher.calls)
	require.Equal(t, 7, pruner.retention)
	require.Equal(t, 1, purger.calls)

	var count int64
	require.NoError(t, db.Model(&models.LoginToken{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCleanerRunOnceJoinsErrors(t *testing.T) {
	dispatchErr := errors.New("smtp down")
	auditErr := errors.New("audit locked")

	c := NewCleaner(nil,
		WithMailDispatcher(&stubDispatcher{err: dispatchErr}),
		WithAuditPruner(&stubPruner{err: auditErr}),
	)

	err := c.RunOnce(context.Background())
	require.ErrorIs(t, err, dispatchErr)
	require.ErrorIs(t, err, auditErr)
}

func TestCleanerStartRegistersJobs(t *testing.T) {
	db := dbtest.MustOpenTestDB(t, dbtest.WithAutoMigrate())
	scheduler := cron.New(cron.WithLogger(cron.DiscardLogger))

	c := NewCleaner(db,
		WithCron(scheduler),
		WithMailDispatcher(&stubDispatcher{}),
		WithAuditPruner(&stubPruner{}),
		WithCachePurger(&stubPurger{}),
		WithSchedule(JobMailDispatch, "@every 1m"),
	)
	require.NoError(t, c.Start())
	t.Cleanup(func() { <-c.Stop().Done() })

	require.Len(t, scheduler.Entries(), 4)
}

func TestCleanerStartRejectsInvalidSchedule(t *testing.T) {
	c := NewCleaner(nil,
		WithMailDispatcher(&stubDispatcher{}),
		WithSchedule(JobMailDispatch, "not a schedule"),
	)
	require.Error(t, c.Start())
}
