package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/pkg/logger"
)

// ContactService handles the public contact form and newsletter sign-ups.
type ContactService struct {
	db            *gorm.DB
	queue         *mailqueue.Queue
	contactEmails []string
	log           *zap.Logger
}

// NewContactService constructs a ContactService. Contact form submissions are
// forwarded to contactEmails.
func NewContactService(db *gorm.DB, queue *mailqueue.Queue, contactEmails []string) (*ContactService, error) {
	if db == nil {
		return nil, errors.New("contact service: db is required")
	}
	if queue == nil {
		return nil, errors.New("contact service: mail queue is required")
	}
	return &ContactService{
		db:            db,
		queue:         queue,
		contactEmails: normaliseList(contactEmails),
		log:           logger.WithModule("contact"),
	}, nil
}

// SendContactMail forwards a message to the team and confirms receipt to the sender.
func (s *ContactService) SendContactMail(ctx context.Context, name, email, message string) error {
	ctx = ensureContext(ctx)
	s.log.Debug("contactMail parameters", zap.String("name", name), zap.String("email", email))

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if len(s.contactEmails) == 0 {
		s.log.Warn("no contact emails configured, team copy skipped")
	} else {
		teamMsg, err := mailqueue.ContactTeamMail(s.contactEmails, name, email, message)
		if err != nil {
			return fmt.Errorf("contact service: render team mail: %w", err)
		}
		if _, err := s.queue.Enqueue(ctx, teamMsg); err != nil {
			return fmt.Errorf("contact service: enqueue team mail: %w", err)
		}
	}

	confirmation, err := mailqueue.ContactConfirmationMail(email, name, message)
	if err != nil {
		return fmt.Errorf("contact service: render confirmation: %w", err)
	}
	if _, err := s.queue.Enqueue(ctx, confirmation); err != nil {
		return fmt.Errorf("contact service: enqueue confirmation: %w", err)
	}
	return nil
}

// SubscribeToNewsletter records an interested user and confirms the subscription.
func (s *ContactService) SubscribeToNewsletter(ctx context.Context, name, email string) error {
	ctx = ensureContext(ctx)
	s.log.Debug("subscribeToNewsletter parameters", zap.String("name", name), zap.String("email", email))

	interested := models.InterestedUser{
		Name:  strings.TrimSpace(name),
		Email: strings.ToLower(strings.TrimSpace(email)),
	}
	if err := s.db.WithContext(ctx).Create(&interested).Error; err != nil {
		return fmt.Errorf("contact service: store interested user: %w", err)
	}

	msg, err := mailqueue.NewsletterConfirmationMail(interested.Email, interested.Name)
	if err != nil {
		return fmt.Errorf("contact service: render confirmation: %w", err)
	}
	if _, err := s.queue.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("contact service: enqueue confirmation: %w", err)
	}
	return nil
}
