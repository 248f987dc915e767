package security

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/app"
	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/internal/permissions"
	"github.com/clothingloop/server/internal/services"
)

// CheckStatus captures the outcome of a security audit check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// Check contains the result of a single audit verification.
type Check struct {
	ID          string      `json:"id"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation,omitempty"`
	Details     any         `json:"details,omitempty"`
}

// Result aggregates all checks with a per-status count.
type Result struct {
	CheckedAt time.Time      `json:"checked_at"`
	Checks    []Check        `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// Activity reports recent audit trail counts.
type Activity interface {
	Summarise(ctx context.Context, since time.Time) ([]services.AuditCount, error)
}

const (
	minJWTSecretBytes  = 32
	maxLoginTokenTTL   = 7 * 24 * time.Hour
	denialWindow       = 24 * time.Hour
	maxDenialsInWindow = 50
)

// AuditService checks that the deployment is safe to run the loop: an admin
// exists, tokens are signed and short lived, login links use https and mail
// leaves the queue.
type AuditService struct {
	db       *gorm.DB
	cfg      *app.Config
	activity Activity
	now      func() time.Time
}

// Option customises the AuditService.
type Option func(*AuditService)

// WithClock overrides the clock used in results.
func WithClock(clock func() time.Time) Option {
	return func(s *AuditService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithActivity adds the permission denial check fed by the audit trail.
func WithActivity(activity Activity) Option {
	return func(s *AuditService) {
		s.activity = activity
	}
}

// NewAuditService constructs the audit service. Nil db or cfg turn the
// affected checks into warnings.
func NewAuditService(db *gorm.DB, cfg *app.Config, opts ...Option) *AuditService {
	s := &AuditService{db: db, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes all audit checks and returns their outcome.
func (s *AuditService) Run(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	checks := []Check{
		s.globalAdmin(ctx),
		s.configured("jwt_secret_strength", jwtSecret),
		s.configured("login_token_ttl", loginTokenTTL),
		s.configured("base_domain_https", baseDomain),
		s.configured("mail_delivery", mailDelivery),
	}
	if s.activity != nil {
		checks = append(checks, s.permissionDenials(ctx))
	}

	summary := map[string]int{
		string(StatusPass): 0,
		string(StatusWarn): 0,
		string(StatusFail): 0,
	}
	for _, check := range checks {
		summary[string(check.Status)]++
	}

	return Result{CheckedAt: s.now().UTC(), Checks: checks, Summary: summary}
}

func (s *AuditService) configured(id string, fn func(*app.Config) Check) Check {
	if s.cfg == nil {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "Configuration not loaded.",
			Remediation: "Load configuration before running the security audit.",
		}
	}
	check := fn(s.cfg)
	check.ID = id
	return check
}

func (s *AuditService) globalAdmin(ctx context.Context) Check {
	check := Check{ID: "global_admin_present"}

	if s.cfg != nil && len(s.cfg.ClothingLoop.AdminEmails) > 0 {
		check.Status = StatusPass
		check.Message = "Admin allow-list configured."
		check.Details = map[string]any{"allow_listed": len(s.cfg.ClothingLoop.AdminEmails)}
		return check
	}
	if s.db == nil {
		check.Status = StatusWarn
		check.Message = "Database unavailable, unable to look for admin accounts."
		check.Remediation = "Ensure database connectivity before running the audit."
		return check
	}

	var admins int64
	err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("role = ? AND disabled = ?", permissions.RoleAdmin.String(), false).
		Count(&admins).Error
	switch {
	case err != nil:
		check.Status = StatusWarn
		check.Message = fmt.Sprintf("Could not count admin accounts: %v", err)
		check.Remediation = "Retry after resolving database errors."
	case admins == 0:
		check.Status = StatusFail
		check.Message = "No global admin exists and the admin allow-list is empty."
		check.Remediation = "Set clothingloop.admin_emails before the first admin registers."
	default:
		check.Status = StatusPass
		check.Message = "Global admin account present."
		check.Details = map[string]any{"count": admins}
	}
	return check
}

func (s *AuditService) permissionDenials(ctx context.Context) Check {
	check := Check{ID: "permission_denials"}
	since := s.now().Add(-denialWindow)

	counts, err := s.activity.Summarise(ctx, since)
	if err != nil {
		check.Status = StatusWarn
		check.Message = fmt.Sprintf("Could not read the audit trail: %v", err)
		check.Remediation = "Retry after resolving database errors."
		return check
	}

	denied := map[string]int64{}
	var total int64
	for _, c := range counts {
		if c.Result == services.AuditResultDenied {
			denied[c.Action] += c.Count
			total += c.Count
		}
	}
	check.Details = map[string]any{"denied": denied, "window": denialWindow.String()}
	if total > maxDenialsInWindow {
		check.Status = StatusWarn
		check.Message = fmt.Sprintf("%d permission denials in the last %s.", total, denialWindow)
		check.Remediation = "Review /v1/admin/audit?result=denied for misbehaving clients."
		return check
	}
	check.Status = StatusPass
	check.Message = fmt.Sprintf("%d permission denials in the last %s.", total, denialWindow)
	return check
}

func jwtSecret(cfg *app.Config) Check {
	length := len(cfg.Auth.JWT.Secret)
	switch {
	case length == 0:
		return Check{
			Status:      StatusFail,
			Message:     "Missing JWT signing secret.",
			Remediation: fmt.Sprintf("Provide a random signing secret of at least %d bytes.", minJWTSecretBytes),
		}
	case length < minJWTSecretBytes:
		return Check{
			Status:      StatusFail,
			Message:     fmt.Sprintf("JWT signing secret is too short (%d bytes).", length),
			Remediation: fmt.Sprintf("Use a randomly generated secret of at least %d bytes.", minJWTSecretBytes),
		}
	}
	return Check{
		Status:  StatusPass,
		Message: fmt.Sprintf("JWT signing secret length is %d bytes.", length),
		Details: map[string]any{"length": length},
	}
}

func loginTokenTTL(cfg *app.Config) Check {
	ttl := cfg.Auth.LoginTokenLifetime()
	details := map[string]any{"ttl": ttl.String()}
	if ttl > maxLoginTokenTTL {
		return Check{
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Login links stay valid for %s, longer than the recommended %s.", ttl, maxLoginTokenTTL),
			Remediation: "Lower auth.login_token_ttl.",
			Details:     details,
		}
	}
	return Check{Status: StatusPass, Message: fmt.Sprintf("Login links expire after %s.", ttl), Details: details}
}

func baseDomain(cfg *app.Config) Check {
	domain := strings.TrimSpace(cfg.ClothingLoop.BaseDomain)
	parsed, err := url.Parse(domain)
	if domain == "" || err != nil || parsed.Host == "" {
		return Check{
			Status:      StatusFail,
			Message:     fmt.Sprintf("Base domain %q is not an absolute URL.", domain),
			Remediation: "Set clothingloop.base_domain to the public frontend URL.",
		}
	}
	if parsed.Scheme != "https" && cfg.Server.IsProduction() {
		return Check{
			Status:      StatusFail,
			Message:     "Login links are sent over plain http in production.",
			Remediation: "Serve the frontend over https and update clothingloop.base_domain.",
		}
	}
	return Check{Status: StatusPass, Message: "Login links point at " + parsed.Host + "."}
}

func mailDelivery(cfg *app.Config) Check {
	if cfg.Email.SMTP.Enabled {
		return Check{Status: StatusPass, Message: "SMTP delivery enabled."}
	}
	status := StatusWarn
	if cfg.Server.IsProduction() {
		status = StatusFail
	}
	return Check{
		Status:      status,
		Message:     "SMTP delivery is disabled; verification and login mails stay queued.",
		Remediation: "Enable email.smtp and configure the relay.",
	}
}
