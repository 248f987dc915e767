package mailqueue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/pkg/logger"
	"github.com/clothingloop/server/pkg/mail"
	"github.com/clothingloop/server/pkg/metrics"
)

const defaultBatchSize = 50

// DispatcherConfig controls how pending mail is drained.
type DispatcherConfig struct {
	BatchSize int
	// OverrideRecipient redirects every message, used outside production.
	OverrideRecipient string
	Clock             func() time.Time
}

// DispatchResult summarises one dispatch run.
type DispatchResult struct {
	Sent   int
	Failed int
}

// Dispatcher delivers pending rows through a mail.Mailer.
type Dispatcher struct {
	db     *gorm.DB
	mailer mail.Mailer
	cfg    DispatcherConfig
	now    func() time.Time
	log    *zap.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(db *gorm.DB, mailer mail.Mailer, cfg DispatcherConfig) (*Dispatcher, error) {
	if db == nil {
		return nil, errors.New("mail dispatcher: db is required")
	}
	if mailer == nil {
		return nil, errors.New("mail dispatcher: mailer is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}
	return &Dispatcher{
		db:     db,
		mailer: mailer,
		cfg:    cfg,
		now:    now,
		log:    logger.WithModule("mail-dispatcher"),
	}, nil
}

// DispatchPending sends up to one batch of pending mail, oldest first. Each row
// is marked sent or failed; failed rows are not retried. When SMTP delivery is
// disabled the rows stay pending.
func (d *Dispatcher) DispatchPending(ctx context.Context) (DispatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var result DispatchResult

	var pending []models.Mail
	if err := d.db.WithContext(ctx).
		Where("status = ?", models.MailStatusPending).
		Order("created_at ASC").
		Limit(d.cfg.BatchSize).
		Find(&pending).Error; err != nil {
		return result, fmt.Errorf("mail dispatcher: load pending: %w", err)
	}

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record := &pending[i]
		err := d.mailer.Send(ctx, mail.Message{
			To:      d.recipients(record),
			ReplyTo: record.ReplyTo,
			Subject: record.Subject,
			HTML:    record.HTML,
		})
		if errors.Is(err, mail.ErrSMTPDisabled) {
			d.log.Debug("smtp disabled, leaving mail pending", zap.Int("pending", len(pending)-i))
			break
		}

		if err != nil {
			result.Failed++
			metrics.MailsDispatched.WithLabelValues("failed").Inc()
			d.log.Warn("mail delivery failed", zap.String("mail_id", record.ID), zap.String("kind", record.Kind), zap.Error(err))
			if uErr := d.mark(ctx, record.ID, map[string]any{
				"status": models.MailStatusFailed,
				"error":  err.Error(),
			}); uErr != nil {
				return result, uErr
			}
			continue
		}

		result.Sent++
		metrics.MailsDispatched.WithLabelValues("sent").Inc()
		if uErr := d.mark(ctx, record.ID, map[string]any{
			"status":  models.MailStatusSent,
			"error":   "",
			"sent_at": d.now(),
		}); uErr != nil {
			return result, uErr
		}
	}

	var remaining int64
	if err := d.db.WithContext(ctx).Model(&models.Mail{}).
		Where("status = ?", models.MailStatusPending).
		Count(&remaining).Error; err == nil {
		metrics.PendingMails.Set(float64(remaining))
	}

	if result.Sent > 0 || result.Failed > 0 {
		d.log.Info("mail dispatch completed", zap.Int("sent", result.Sent), zap.Int("failed", result.Failed))
	}
	return result, nil
}

func (d *Dispatcher) recipients(record *models.Mail) []string {
	if override := strings.TrimSpace(d.cfg.OverrideRecipient); override != "" {
		return []string{override}
	}
	return models.DecodeStrings(record.To)
}

func (d *Dispatcher) mark(ctx context.Context, id string, columns map[string]any) error {
	if err := d.db.WithContext(ctx).Model(&models.Mail{}).Where("id = ?", id).Updates(columns).Error; err != nil {
		return fmt.Errorf("mail dispatcher: update %s: %w", id, err)
	}
	return nil
}
