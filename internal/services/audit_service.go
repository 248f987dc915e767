package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/models"
)

// Audited actions.
const (
	AuditActionUserCreate    = "user.create"
	AuditActionUserRead      = "user.read"
	AuditActionUserUpdate    = "user.update"
	AuditActionUserDisable   = "user.disable"
	AuditActionChainCreate   = "chain.create"
	AuditActionChainAddUser  = "chain.add_user"
	AuditActionLoginValidate = "login.validate"
)

// Audit results.
const (
	AuditResultSuccess = "success"
	AuditResultDenied  = "denied"
)

// AuditEntry is one permission-relevant event: who did what to which target,
// and whether it was allowed.
type AuditEntry struct {
	ActorID   *string
	Action    string
	Resource  string
	TargetID  string
	Result    string
	IPAddress string
	UserAgent string
	Metadata  map[string]any
}

// AuditFilters narrows List. Empty fields match everything.
type AuditFilters struct {
	ActorID  string
	Action   string
	Result   string
	Resource string
	TargetID string
	Since    *time.Time
	Until    *time.Time
}

// AuditListOptions controls pagination and filtering for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// AuditCount is the number of entries per action and result.
type AuditCount struct {
	Action string `json:"action"`
	Result string `json:"result"`
	Count  int64  `json:"count"`
}

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// AuditService persists and retrieves the audit trail.
type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, now: time.Now}, nil
}

// Log stores entry. Action and Result are required.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	action := strings.TrimSpace(entry.Action)
	result := strings.TrimSpace(entry.Result)
	switch {
	case action == "":
		return errors.New("audit service: action is required")
	case result == "":
		return errors.New("audit service: result is required")
	}

	metadata := datatypes.JSON(`{}`)
	if len(entry.Metadata) > 0 {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		metadata = encoded
	}

	record := models.AuditLog{
		ActorID:   stringPtr(optionalString(entry.ActorID)),
		Action:    action,
		Resource:  strings.TrimSpace(entry.Resource),
		TargetID:  strings.TrimSpace(entry.TargetID),
		Result:    result,
		IPAddress: strings.TrimSpace(entry.IPAddress),
		UserAgent: strings.TrimSpace(entry.UserAgent),
		Metadata:  metadata,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("audit service: create log: %w", err)
	}
	return nil
}

// List returns one page of audit logs, newest first, and the total match count.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)
	page, perPage := normalisePage(opts.Page, opts.PageSize)

	query := opts.Filters.apply(s.db.WithContext(ctx).Model(&models.AuditLog{}))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	logs := make([]models.AuditLog, 0, perPage)
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}
	return logs, total, nil
}

// Summarise counts entries created at or after since, grouped by action and result.
func (s *AuditService) Summarise(ctx context.Context, since time.Time) ([]AuditCount, error) {
	ctx = ensureContext(ctx)

	var counts []AuditCount
	err := s.db.WithContext(ctx).Model(&models.AuditLog{}).
		Select("action, result, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("action, result").
		Order("action, result").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("audit service: summarise: %w", err)
	}
	return counts, nil
}

// CleanupOlderThan removes audit logs older than retentionDays.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)
	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func normalisePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > maxAuditPageSize {
		perPage = defaultAuditPageSize
	}
	return page, perPage
}

func (f AuditFilters) apply(query *gorm.DB) *gorm.DB {
	columns := []struct {
		column string
		value  string
	}{
		{"actor_id", f.ActorID},
		{"action", f.Action},
		{"result", f.Result},
		{"resource", f.Resource},
		{"target_id", f.TargetID},
	}
	for _, c := range columns {
		if c.value != "" {
			query = query.Where(c.column+" = ?", c.value)
		}
	}
	if f.Since != nil {
		query = query.Where("created_at >= ?", *f.Since)
	}
	if f.Until != nil {
		query = query.Where("created_at <= ?", *f.Until)
	}
	return query
}
