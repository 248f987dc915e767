package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/auth"
	"github.com/clothingloop/server/internal/identity"
	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/pkg/crypto"
	"github.com/clothingloop/server/pkg/logger"
	"github.com/clothingloop/server/pkg/metrics"
)

const (
	loginTokenBytes = 32
	loginPath       = "/login/validate"
)

// LoginServiceConfig carries the settings for login links.
type LoginServiceConfig struct {
	BaseDomain string
	TokenTTL   time.Duration
	Clock      func() time.Time
}

// LoginResult is returned when a login link is redeemed.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *UserView `json:"user"`
}

// LoginService issues one-time login links and exchanges them for access tokens.
type LoginService struct {
	db       *gorm.DB
	accounts identity.Store
	queue    *mailqueue.Queue
	jwt      *auth.JWTService
	audit    *AuditService
	cfg      LoginServiceConfig
	now      func() time.Time
	log      *zap.Logger
}

// NewLoginService constructs a LoginService.
func NewLoginService(db *gorm.DB, accounts identity.Store, queue *mailqueue.Queue, jwt *auth.JWTService, audit *AuditService, cfg LoginServiceConfig) (*LoginService, error) {
	if db == nil {
		return nil, errors.New("login service: db is required")
	}
	if accounts == nil {
		return nil, errors.New("login service: identity store is required")
	}
	if queue == nil {
		return nil, errors.New("login service: mail queue is required")
	}
	if jwt == nil {
		return nil, errors.New("login service: jwt service is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	cfg.BaseDomain = strings.TrimRight(cfg.BaseDomain, "/")
	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}
	return &LoginService{
		db:       db,
		accounts: accounts,
		queue:    queue,
		jwt:      jwt,
		audit:    audit,
		cfg:      cfg,
		now:      now,
		log:      logger.WithModule("login"),
	}, nil
}

// IssueLink stores a fresh login token for accountID and returns the link carrying it.
func (s *LoginService) IssueLink(ctx context.Context, accountID string) (string, error) {
	ctx = ensureContext(ctx)

	token, err := crypto.GenerateToken(loginTokenBytes)
	if err != nil {
		return "", fmt.Errorf("login service: generate token: %w", err)
	}

	record := models.LoginToken{
		AccountID: accountID,
		TokenHash: crypto.HashToken(token),
		ExpiresAt: s.now().Add(s.cfg.TokenTTL),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("login service: store token: %w", err)
	}

	return s.cfg.BaseDomain + loginPath + "?token=" + url.QueryEscape(token), nil
}

// SendLoginLink mails a login link to the account registered under email.
func (s *LoginService) SendLoginLink(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)
	s.log.Debug("loginEmail parameters", zap.String("email", email))

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("login service: load account: %w", err)
	}
	if account.Disabled {
		return ErrAccountDisabled
	}

	link, err := s.IssueLink(ctx, account.ID)
	if err != nil {
		return err
	}

	msg, err := mailqueue.LoginLinkMail(account.Email, account.DisplayName, link)
	if err != nil {
		return fmt.Errorf("login service: render login mail: %w", err)
	}
	if _, err := s.queue.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("login service: enqueue login mail: %w", err)
	}
	return nil
}

// Validate redeems a login token. The account's email is marked verified and
// a signed access token is returned.
func (s *LoginService) Validate(ctx context.Context, token string) (*LoginResult, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidLoginToken
	}

	now := s.now()
	var record models.LoginToken
	err := s.db.WithContext(ctx).
		Where("token_hash = ?", crypto.HashToken(token)).
		Take(&record).Error
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidLoginToken
		}
		return nil, fmt.Errorf("login service: load token: %w", err)
	}
	if record.UsedAt != nil || !now.Before(record.ExpiresAt) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidLoginToken
	}

	// Only an unused token may be consumed.
	res := s.db.WithContext(ctx).
		Model(&models.LoginToken{}).
		Where("id = ? AND used_at IS NULL", record.ID).
		Update("used_at", now)
	if res.Error != nil {
		return nil, fmt.Errorf("login service: consume token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidLoginToken
	}

	account, err := s.accounts.Get(ctx, record.AccountID)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			return nil, ErrInvalidLoginToken
		}
		return nil, fmt.Errorf("login service: load account: %w", err)
	}
	if account.Disabled {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrAccountDisabled
	}

	if !account.EmailVerified {
		if err := s.accounts.MarkEmailVerified(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("login service: verify email: %w", err)
		}
		account.EmailVerified = true
	}

	signed, err := s.jwt.GenerateAccessToken(auth.AccessTokenInput{
		AccountID: account.ID,
		Email:     account.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("login service: issue access token: %w", err)
	}

	profile, err := loadProfile(ctx, s.db, account.ID)
	if err != nil {
		return nil, fmt.Errorf("login service: load profile: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  &account.ID,
		Action:   AuditActionLoginValidate,
		Resource: "accounts",
		TargetID: account.ID,
		Result:   auditSuccess,
	})

	return &LoginResult{
		Token:     signed,
		ExpiresAt: now.Add(s.jwt.TTL()),
		User:      newUserView(account, profile),
	}, nil
}
