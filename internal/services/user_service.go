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
	apperrors "github.com/clothingloop/server/pkg/errors"
	"github.com/clothingloop/server/pkg/logger"
)

// UserView is the participant record returned to API callers.
type UserView struct {
	UID             string   `json:"uid"`
	Email           string   `json:"email"`
	Name            string   `json:"name"`
	PhoneNumber     string   `json:"phoneNumber,omitempty"`
	EmailVerified   bool     `json:"emailVerified"`
	ChainID         string   `json:"chainId,omitempty"`
	Address         string   `json:"address"`
	Newsletter      bool     `json:"newsletter"`
	InterestedSizes []string `json:"interestedSizes"`
	Role            string   `json:"role,omitempty"`
}

// CreateUserInput describes a registration.
type CreateUserInput struct {
	Email           string
	ChainID         string
	Name            string
	PhoneNumber     string
	Newsletter      bool
	InterestedSizes []string
	Address         string
}

// CreateUserResult carries either the new account id or the reason the
// identity store refused the account.
type CreateUserResult struct {
	ID              string                    `json:"id,omitempty"`
	ValidationError *identity.ValidationError `json:"validationError,omitempty"`
}

// UpdateUserInput enumerates mutable participant attributes. Nil leaves a field untouched.
type UpdateUserInput struct {
	UID             string
	Name            *string
	PhoneNumber     *string
	Newsletter      *bool
	InterestedSizes *[]string
	Address         *string
}

// UserServiceConfig holds the registration settings read at start-up.
type UserServiceConfig struct {
	AdminEmails []string
}

// UserService registers participants and serves their profiles.
type UserService struct {
	db       *gorm.DB
	accounts identity.Store
	queue    *mailqueue.Queue
	login    *LoginService
	audit    *AuditService
	cfg      UserServiceConfig
	log      *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, accounts identity.Store, queue *mailqueue.Queue, login *LoginService, audit *AuditService, cfg UserServiceConfig) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if accounts == nil {
		return nil, errors.New("user service: identity store is required")
	}
	if queue == nil {
		return nil, errors.New("user service: mail queue is required")
	}
	if login == nil {
		return nil, errors.New("user service: login service is required")
	}
	return &UserService{
		db:       db,
		accounts: accounts,
		queue:    queue,
		login:    login,
		audit:    audit,
		cfg:      cfg,
		log:      logger.WithModule("users"),
	}, nil
}

// Create registers a participant: the account with its claims, a verification
// mail and the profile. Identity validation failures are returned in the
// result rather than as an error.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*CreateUserResult, error) {
	ctx = ensureContext(ctx)
	s.log.Debug("createUser parameters",
		zap.String("email", input.Email),
		zap.String("chain_id", input.ChainID),
		zap.String("name", input.Name),
		zap.Bool("newsletter", input.Newsletter),
		zap.Strings("interested_sizes", input.InterestedSizes),
	)

	chainID := strings.TrimSpace(input.ChainID)
	if chainID != "" {
		if _, err := findChain(ctx, s.db, chainID); err != nil {
			return nil, err
		}
	}

	claims := permissions.ClaimsAtRegistration(input.Email, chainID, s.cfg.AdminEmails)
	account, err := s.accounts.Create(ctx, identity.CreateAccountInput{
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		DisplayName: strings.TrimSpace(input.Name),
		Claims:      claims,
	})
	if err != nil {
		if vErr, ok := identity.AsValidationError(err); ok {
			s.log.Warn("error creating user", zap.String("code", vErr.Code), zap.String("message", vErr.Message))
			return &CreateUserResult{ValidationError: vErr}, nil
		}
		return nil, fmt.Errorf("user service: create account: %w", err)
	}
	if claims.Role == permissions.RoleAdmin {
		s.log.Debug("adding user as admin", zap.String("account_id", account.ID))
	}

	link, err := s.login.IssueLink(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	msg, err := mailqueue.VerificationMail(account.Email, account.DisplayName, link)
	if err != nil {
		return nil, fmt.Errorf("user service: render verification mail: %w", err)
	}
	if _, err := s.queue.Enqueue(ctx, msg); err != nil {
		return nil, fmt.Errorf("user service: enqueue verification mail: %w", err)
	}

	profile := models.UserProfile{
		AccountID:       account.ID,
		ChainID:         stringPtr(chainID),
		Address:         strings.TrimSpace(input.Address),
		Newsletter:      input.Newsletter,
		InterestedSizes: models.EncodeStrings(normaliseList(input.InterestedSizes)),
	}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("user service: create profile: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  &account.ID,
		Action:   AuditActionUserCreate,
		Resource: "users",
		TargetID: account.ID,
		Result:   auditSuccess,
		Metadata: map[string]any{"chain_id": chainID, "role": claims.Role.String()},
	})

	return &CreateUserResult{ID: account.ID}, nil
}

// GetByID returns the participant uid when the caller may read it.
func (s *UserService) GetByID(ctx context.Context, caller permissions.AuthContext, uid string) (*UserView, error) {
	ctx = ensureContext(ctx)
	s.log.Debug("getUserById parameters", zap.String("uid", uid))

	account, err := s.accounts.Get(ctx, uid)
	if err != nil {
		return nil, accountLookupError(err)
	}
	return s.view(ctx, caller, account)
}

// GetByEmail returns the participant registered under email when the caller may read it.
func (s *UserService) GetByEmail(ctx context.Context, caller permissions.AuthContext, email string) (*UserView, error) {
	ctx = ensureContext(ctx)
	s.log.Debug("getUserByEmail parameters", zap.String("email", email))

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, accountLookupError(err)
	}
	return s.view(ctx, caller, account)
}

func (s *UserService) view(ctx context.Context, caller permissions.AuthContext, account *identity.Account) (*UserView, error) {
	if !permissions.CanReadProfile(caller, account.ID, account.Claims.ChainID) {
		recordAudit(s.audit, ctx, AuditEntry{
			ActorID:  actorOf(caller),
			Action:   AuditActionUserRead,
			Resource: "users",
			TargetID: account.ID,
			Result:   auditDenied,
		})
		return nil, permissionDenied(permissions.OpReadProfile)
	}

	profile, err := loadProfile(ctx, s.db, account.ID)
	if err != nil {
		return nil, fmt.Errorf("user service: load profile: %w", err)
	}
	return newUserView(account, profile), nil
}

// Update changes the account display fields and the profile of input.UID.
func (s *UserService) Update(ctx context.Context, caller permissions.AuthContext, input UpdateUserInput) error {
	ctx = ensureContext(ctx)
	s.log.Debug("updateUser parameters", zap.String("uid", input.UID))

	if !permissions.CanUpdateProfile(caller, input.UID) {
		recordAudit(s.audit, ctx, AuditEntry{
			ActorID:  actorOf(caller),
			Action:   AuditActionUserUpdate,
			Resource: "users",
			TargetID: input.UID,
			Result:   auditDenied,
		})
		return permissionDenied(permissions.OpUpdateProfile)
	}

	var name *string
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		name = &trimmed
	}
	account, err := s.accounts.Update(ctx, input.UID, identity.UpdateAccountInput{
		DisplayName: name,
		PhoneNumber: input.PhoneNumber,
	})
	if err != nil {
		if vErr, ok := identity.AsValidationError(err); ok {
			return apperrors.NewBadRequest(vErr.Message)
		}
		return accountLookupError(err)
	}

	updates := map[string]any{}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.Newsletter != nil {
		updates["newsletter"] = *input.Newsletter
	}
	if input.InterestedSizes != nil {
		updates["interested_sizes"] = models.EncodeStrings(normaliseList(*input.InterestedSizes))
	}
	if len(updates) > 0 {
		if err := updateProfile(ctx, s.db, account.ID, updates); err != nil {
			return fmt.Errorf("user service: update profile: %w", err)
		}
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  actorOf(caller),
		Action:   AuditActionUserUpdate,
		Resource: "users",
		TargetID: account.ID,
		Result:   auditSuccess,
	})
	return nil
}

// SetDisabled blocks or restores sign-in for uid. Only global admins may call
// it, and they cannot disable themselves.
func (s *UserService) SetDisabled(ctx context.Context, caller permissions.AuthContext, uid string, disabled bool) error {
	ctx = ensureContext(ctx)
	uid = strings.TrimSpace(uid)

	if !permissions.IsGlobalAdmin(caller) {
		recordAudit(s.audit, ctx, AuditEntry{
			ActorID:  actorOf(caller),
			Action:   AuditActionUserDisable,
			Resource: "users",
			TargetID: uid,
			Result:   auditDenied,
		})
		return apperrors.ErrPermissionDenied
	}
	if disabled && uid == caller.AccountID {
		return apperrors.NewBadRequest("You cannot disable your own account")
	}

	account, err := s.accounts.Update(ctx, uid, identity.UpdateAccountInput{Disabled: &disabled})
	if err != nil {
		return accountLookupError(err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  actorOf(caller),
		Action:   AuditActionUserDisable,
		Resource: "users",
		TargetID: account.ID,
		Result:   auditSuccess,
		Metadata: map[string]any{"disabled": disabled},
	})
	return nil
}

func newUserView(account *identity.Account, profile *models.UserProfile) *UserView {
	view := &UserView{
		UID:             account.ID,
		Email:           account.Email,
		Name:            account.DisplayName,
		PhoneNumber:     account.PhoneNumber,
		EmailVerified:   account.EmailVerified,
		InterestedSizes: []string{},
		Role:            account.Claims.Role.String(),
	}
	if profile != nil {
		view.ChainID = optionalString(profile.ChainID)
		view.Address = profile.Address
		view.Newsletter = profile.Newsletter
		view.InterestedSizes = models.DecodeStrings(profile.InterestedSizes)
	}
	return view
}

// loadProfile returns nil without error when the account has no profile yet.
func loadProfile(ctx context.Context, db *gorm.DB, accountID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := db.WithContext(ctx).Where("account_id = ?", accountID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// updateProfile merges updates into the profile of accountID, creating it when missing.
func updateProfile(ctx context.Context, db *gorm.DB, accountID string, updates map[string]any) error {
	profile := models.UserProfile{AccountID: accountID}
	if err := db.WithContext(ctx).
		Where(models.UserProfile{AccountID: accountID}).
		Attrs(models.UserProfile{InterestedSizes: models.EncodeStrings(nil)}).
		FirstOrCreate(&profile).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&profile).Updates(updates).Error
}

func accountLookupError(err error) error {
	if errors.Is(err, identity.ErrAccountNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("user service: load account: %w", err)
}
