package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/identity"
	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/internal/permissions"
	"github.com/clothingloop/server/pkg/logger"
)

// ChainView is the chain record returned to API callers.
type ChainView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Radius      float64  `json:"radius"`
	Categories  []string `json:"categories"`
	Published   bool     `json:"published"`
	ChainAdmin  string   `json:"chainAdmin"`
}

// CreateChainInput describes a new loop and the account that will administer it.
type CreateChainInput struct {
	UID         string
	Name        string
	Description string
	Address     string
	Latitude    float64
	Longitude   float64
	Radius      float64
	Categories  []string
}

// ChainService manages loops and their membership.
type ChainService struct {
	db       *gorm.DB
	accounts identity.Store
	queue    *mailqueue.Queue
	audit    *AuditService
	log      *zap.Logger
}

// NewChainService constructs a ChainService.
func NewChainService(db *gorm.DB, accounts identity.Store, queue *mailqueue.Queue, audit *AuditService) (*ChainService, error) {
	if db == nil {
		return nil, errors.New("chain service: db is required")
	}
	if accounts == nil {
		return nil, errors.New("chain service: identity store is required")
	}
	if queue == nil {
		return nil, errors.New("chain service: mail queue is required")
	}
	return &ChainService{
		db:       db,
		accounts: accounts,
		queue:    queue,
		audit:    audit,
		log:      logger.WithModule("chains"),
	}, nil
}

// Create stores a new unpublished chain administered by input.UID and scopes
// that account's claims to it.
func (s *ChainService) Create(ctx context.Context, caller permissions.AuthContext, input CreateChainInput) (*ChainView, error) {
	ctx = ensureContext(ctx)
	s.log.Debug("createChain parameters",
		zap.String("uid", input.UID),
		zap.String("name", input.Name),
		zap.Float64("latitude", input.Latitude),
		zap.Float64("longitude", input.Longitude),
		zap.Float64("radius", input.Radius),
		zap.Strings("categories", input.Categories),
	)

	account, err := s.accounts.Get(ctx, input.UID)
	if err != nil {
		return nil, accountLookupError(err)
	}
	profile, err := loadProfile(ctx, s.db, account.ID)
	if err != nil {
		return nil, fmt.Errorf("chain service: load profile: %w", err)
	}

	target := permissions.ChainCreationTarget{
		AccountID: account.ID,
		Claims:    account.Claims,
	}
	if profile != nil {
		target.ProfileChainID = optionalString(profile.ChainID)
	}
	if !permissions.CanCreateChain(caller, target) {
		recordAudit(s.audit, ctx, AuditEntry{
			ActorID:  actorOf(caller),
			Action:   AuditActionChainCreate,
			Resource: "chains",
			Result:   auditDenied,
			Metadata: map[string]any{"uid": account.ID},
		})
		return nil, permissionDenied(permissions.OpCreateChain)
	}

	chain := models.Chain{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Address:     strings.TrimSpace(input.Address),
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Radius:      input.Radius,
		Categories:  models.EncodeStrings(normaliseList(input.Categories)),
		Published:   false,
		ChainAdmin:  account.ID,
	}
	if err := s.db.WithContext(ctx).Create(&chain).Error; err != nil {
		return nil, fmt.Errorf("chain service: create chain: %w", err)
	}

	if err := updateProfile(ctx, s.db, account.ID, map[string]any{"chain_id": chain.ID}); err != nil {
		return nil, fmt.Errorf("chain service: update profile: %w", err)
	}
	claims := permissions.ClaimsAfterChainCreated(account.Claims, chain.ID)
	if err := s.accounts.SetClaims(ctx, account.ID, claims); err != nil {
		return nil, fmt.Errorf("chain service: set claims: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  actorOf(caller),
		Action:   AuditActionChainCreate,
		Resource: "chains",
		TargetID: chain.ID,
		Result:   auditSuccess,
		Metadata: map[string]any{"uid": account.ID, "role": claims.Role.String()},
	})

	return newChainView(&chain), nil
}

// AddUser moves uid into chainID and notifies the chain's admin. Assigning
// the chain the account already belongs to changes nothing.
func (s *ChainService) AddUser(ctx context.Context, caller permissions.AuthContext, uid, chainID string) error {
	ctx = ensureContext(ctx)
	s.log.Debug("addUserToChain parameters", zap.String("uid", uid), zap.String("chain_id", chainID))

	if !permissions.CanAssignChain(caller, uid) {
		recordAudit(s.audit, ctx, AuditEntry{
			ActorID:  actorOf(caller),
			Action:   AuditActionChainAddUser,
			Resource: "chains",
			TargetID: chainID,
			Result:   auditDenied,
			Metadata: map[string]any{"uid": uid},
		})
		return permissionDenied(permissions.OpAssignChain)
	}

	chain, err := findChain(ctx, s.db, chainID)
	if err != nil {
		return err
	}
	account, err := s.accounts.Get(ctx, uid)
	if err != nil {
		return accountLookupError(err)
	}
	profile, err := loadProfile(ctx, s.db, account.ID)
	if err != nil {
		return fmt.Errorf("chain service: load profile: %w", err)
	}

	current := ""
	if profile != nil {
		current = optionalString(profile.ChainID)
	}
	if permissions.IsDuplicateMembership(current, chain.ID) {
		s.log.Warn("user is already member of chain", zap.String("uid", account.ID), zap.String("chain_id", chain.ID))
		return nil
	}

	if err := updateProfile(ctx, s.db, account.ID, map[string]any{"chain_id": chain.ID}); err != nil {
		return fmt.Errorf("chain service: update profile: %w", err)
	}
	claims := permissions.ClaimsAfterChainSwitch(account.Claims, chain.ID)
	if err := s.accounts.SetClaims(ctx, account.ID, claims); err != nil {
		return fmt.Errorf("chain service: set claims: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  actorOf(caller),
		Action:   AuditActionChainAddUser,
		Resource: "chains",
		TargetID: chain.ID,
		Result:   auditSuccess,
		Metadata: map[string]any{"uid": account.ID, "previous_chain_id": current},
	})

	return s.notifyChainAdmin(ctx, chain, account)
}

func (s *ChainService) notifyChainAdmin(ctx context.Context, chain *models.Chain, joined *identity.Account) error {
	admin, err := s.accounts.Get(ctx, chain.ChainAdmin)
	if err != nil {
		return fmt.Errorf("chain service: load chain admin: %w", err)
	}

	msg, err := mailqueue.ParticipantJoinedMail(admin.Email, admin.DisplayName, mailqueue.Participant{
		Name:  joined.DisplayName,
		Email: joined.Email,
		Phone: joined.PhoneNumber,
	})
	if err != nil {
		return fmt.Errorf("chain service: render notification: %w", err)
	}
	if _, err := s.queue.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("chain service: enqueue notification: %w", err)
	}
	return nil
}

// Get returns a single chain.
func (s *ChainService) Get(ctx context.Context, chainID string) (*ChainView, error) {
	chain, err := findChain(ensureContext(ctx), s.db, chainID)
	if err != nil {
		return nil, err
	}
	return newChainView(chain), nil
}

// List returns the published chains. A global admin sees every chain and a
// member also sees the chain it belongs to.
func (s *ChainService) List(ctx context.Context, caller permissions.AuthContext) ([]ChainView, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Chain{})
	switch {
	case permissions.IsGlobalAdmin(caller):
	case caller.Authenticated() && caller.ChainID != "":
		query = query.Where("published = ? OR id = ?", true, caller.ChainID)
	default:
		query = query.Where("published = ?", true)
	}

	var chains []models.Chain
	if err := query.Order("created_at ASC").Find(&chains).Error; err != nil {
		return nil, fmt.Errorf("chain service: list chains: %w", err)
	}

	views := make([]ChainView, 0, len(chains))
	for i := range chains {
		views = append(views, *newChainView(&chains[i]))
	}
	return views, nil
}

func findChain(ctx context.Context, db *gorm.DB, chainID string) (*models.Chain, error) {
	chainID = strings.TrimSpace(chainID)
	if chainID == "" {
		return nil, ErrChainNotFound
	}

	var chain models.Chain
	err := db.WithContext(ctx).Where("id = ?", chainID).Take(&chain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChainNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chain service: load chain: %w", err)
	}
	return &chain, nil
}

func newChainView(chain *models.Chain) *ChainView {
	return &ChainView{
		ID:          chain.ID,
		Name:        chain.Name,
		Description: chain.Description,
		Address:     chain.Address,
		Latitude:    chain.Latitude,
		Longitude:   chain.Longitude,
		Radius:      chain.Radius,
		Categories:  models.DecodeStrings(chain.Categories),
		Published:   chain.Published,
		ChainAdmin:  chain.ChainAdmin,
	}
}
