package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/internal/monitoring"
)

const defaultMailMaxAge = 15 * time.Minute

// MailBacklog reports degraded when pending mail older than maxAge is waiting
// while SMTP delivery is enabled.
func MailBacklog(db *gorm.DB, smtpEnabled bool, maxAge time.Duration, now func() time.Time) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultMailMaxAge
	}
	if now == nil {
		now = time.Now
	}

	return monitoring.NewCheck("mail_queue", func(ctx context.Context) monitoring.ProbeResult {
		if !smtpEnabled {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "smtp disabled"}
		}
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		start := time.Now()
		var stale int64
		err := db.WithContext(ctx).Model(&models.Mail{}).
			Where("status = ? AND created_at < ?", models.MailStatusPending, now().Add(-maxAge)).
			Count(&stale).Error
		if err != nil {
			return monitoring.ResultFromError("mail_queue", err, time.Since(start))
		}
		if stale > 0 {
			return monitoring.ProbeResult{
				Status:  monitoring.StatusDegraded,
				Details: fmt.Sprintf("%d mails pending longer than %s", stale, maxAge),
			}
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	})
}
