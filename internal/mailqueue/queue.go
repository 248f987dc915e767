package mailqueue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/pkg/logger"
	"github.com/clothingloop/server/pkg/metrics"
)

// DefaultRoutingKey is used for queued mail events when none is configured.
const DefaultRoutingKey = "mail.queued"

// QueuedEvent is the payload published for each enqueued mail.
type QueuedEvent struct {
	ID      string   `json:"id"`
	Kind    string   `json:"kind"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Queue persists outbound mail. Writing a row is the enqueue.
type Queue struct {
	db         *gorm.DB
	publisher  Publisher
	routingKey string
	log        *zap.Logger
}

// QueueOption customises a Queue.
type QueueOption func(*Queue)

// WithPublisher also publishes every enqueued mail to an external consumer.
func WithPublisher(publisher Publisher, routingKey string) QueueOption {
	return func(q *Queue) {
		q.publisher = publisher
		if strings.TrimSpace(routingKey) != "" {
			q.routingKey = routingKey
		}
	}
}

// NewQueue constructs a mail queue backed by the mails table.
func NewQueue(db *gorm.DB, opts ...QueueOption) (*Queue, error) {
	if db == nil {
		return nil, errors.New("mail queue: db is required")
	}
	q := &Queue{
		db:         db,
		routingKey: DefaultRoutingKey,
		log:        logger.WithModule("mailqueue"),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Enqueue stores msg as a pending mail.
func (q *Queue) Enqueue(ctx context.Context, msg Message) (*models.Mail, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	recipients := cleanRecipients(msg.To)
	if len(recipients) == 0 {
		return nil, errors.New("mail queue: at least one recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return nil, errors.New("mail queue: subject is required")
	}

	record := &models.Mail{
		Kind:    msg.Kind,
		To:      models.EncodeStrings(recipients),
		ReplyTo: strings.TrimSpace(msg.ReplyTo),
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Status:  models.MailStatusPending,
	}
	if err := q.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("mail queue: enqueue: %w", err)
	}

	kind := msg.Kind
	if kind == "" {
		kind = "other"
	}
	metrics.MailsEnqueued.WithLabelValues(kind).Inc()
	q.log.Debug("mail enqueued",
		zap.String("mail_id", record.ID),
		zap.String("kind", kind),
		zap.Int("recipients", len(recipients)),
	)

	if q.publisher != nil {
		event := QueuedEvent{
			ID:      record.ID,
			Kind:    kind,
			To:      recipients,
			ReplyTo: record.ReplyTo,
			Subject: record.Subject,
			HTML:    record.HTML,
		}
		if err := q.publisher.PublishJSON(ctx, q.routingKey, event); err != nil {
			q.log.Warn("publish queued mail", zap.String("mail_id", record.ID), zap.Error(err))
		}
	}

	return record, nil
}

func cleanRecipients(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
