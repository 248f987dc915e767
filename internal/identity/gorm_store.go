package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/database"
	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/internal/permissions"
	"github.com/clothingloop/server/pkg/validator"
)

// GormStore implements Store on the accounts table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a database backed identity store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("identity store: db is required")
	}
	return &GormStore{db: db}, nil
}

// Create validates and inserts a new account.
func (s *GormStore) Create(ctx context.Context, input CreateAccountInput) (*Account, error) {
	ctx = ensureContext(ctx)

	email, err := validateEmail(input.Email)
	if err != nil {
		return nil, err
	}
	phone, err := validatePhoneNumber(input.PhoneNumber)
	if err != nil {
		return nil, err
	}

	if err := s.checkUnique(ctx, "", email, phone); err != nil {
		return nil, err
	}

	record := models.Account{
		Email:       email,
		PhoneNumber: phone,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Role:        input.Claims.Role.String(),
		ChainID:     nullableString(input.Claims.ChainID),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if database.IsUniqueViolation(err) {
			if uErr := s.checkUnique(ctx, "", email, phone); uErr != nil {
				return nil, uErr
			}
			return nil, emailExists()
		}
		return nil, fmt.Errorf("identity store: create account: %w", err)
	}

	return toAccount(record), nil
}

// Get loads an account by identifier.
func (s *GormStore) Get(ctx context.Context, id string) (*Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrAccountNotFound
	}

	var record models.Account
	if err := s.db.WithContext(ensureContext(ctx)).Take(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("identity store: get account: %w", err)
	}
	return toAccount(record), nil
}

// GetByEmail loads an account by its (case-insensitive) email address.
func (s *GormStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrAccountNotFound
	}

	var record models.Account
	if err := s.db.WithContext(ensureContext(ctx)).Take(&record, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("identity store: get account by email: %w", err)
	}
	return toAccount(record), nil
}

// Update changes the supplied account fields.
func (s *GormStore) Update(ctx context.Context, id string, input UpdateAccountInput) (*Account, error) {
	ctx = ensureContext(ctx)

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*input.DisplayName)
	}
	if input.PhoneNumber != nil {
		phone, err := validatePhoneNumber(*input.PhoneNumber)
		if err != nil {
			return nil, err
		}
		if err := s.checkUnique(ctx, current.ID, "", phone); err != nil {
			return nil, err
		}
		updates["phone_number"] = phone
	}
	if input.Disabled != nil {
		updates["disabled"] = *input.Disabled
	}

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).
			Model(&models.Account{}).
			Where("id = ?", current.ID).
			Updates(updates).Error
		if err != nil {
			if database.IsUniqueViolation(err) {
				return nil, phoneExists()
			}
			return nil, fmt.Errorf("identity store: update account: %w", err)
		}
	}

	return s.Get(ctx, current.ID)
}

// SetClaims replaces the claims attached to an account.
func (s *GormStore) SetClaims(ctx context.Context, id string, claims permissions.Claims) error {
	return s.updateColumns(ctx, id, map[string]any{
		"role":     claims.Role.String(),
		"chain_id": nullableString(claims.ChainID),
	})
}

// MarkEmailVerified flags the account's email address as verified.
func (s *GormStore) MarkEmailVerified(ctx context.Context, id string) error {
	return s.updateColumns(ctx, id, map[string]any{"email_verified": true})
}

// Count returns the number of accounts.
func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ensureContext(ctx)).Model(&models.Account{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("identity store: count accounts: %w", err)
	}
	return total, nil
}

func (s *GormStore) updateColumns(ctx context.Context, id string, columns map[string]any) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrAccountNotFound
	}

	result := s.db.WithContext(ensureContext(ctx)).
		Model(&models.Account{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("identity store: update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Some drivers only count rows whose values changed.
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// checkUnique reports which unique field is already taken by another account.
func (s *GormStore) checkUnique(ctx context.Context, selfID, email string, phone *string) error {
	if email != "" {
		taken, err := s.exists(ctx, selfID, "email = ?", email)
		if err != nil {
			return err
		}
		if taken {
			return emailExists()
		}
	}
	if phone != nil {
		taken, err := s.exists(ctx, selfID, "phone_number = ?", *phone)
		if err != nil {
			return err
		}
		if taken {
			return phoneExists()
		}
	}
	return nil
}

func (s *GormStore) exists(ctx context.Context, selfID, query string, arg any) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Account{}).Where(query, arg)
	if selfID != "" {
		q = q.Where("id <> ?", selfID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("identity store: uniqueness check: %w", err)
	}
	return count > 0, nil
}

func validateEmail(raw string) (string, error) {
	email := NormalizeEmail(raw)
	if err := validator.ValidateVar(email, "required,email"); err != nil {
		return "", &ValidationError{
			Code:    CodeInvalidEmail,
			Message: "The email address is improperly formatted.",
		}
	}
	return email, nil
}

// validatePhoneNumber returns nil for an empty number so the column stays NULL.
func validatePhoneNumber(raw string) (*string, error) {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return nil, nil
	}
	if err := validator.ValidateVar(phone, "e164"); err != nil {
		return nil, &ValidationError{
			Code:    CodeInvalidPhoneNumber,
			Message: "The phone number must be a non-empty E.164 standard compliant identifier string.",
		}
	}
	return &phone, nil
}

func emailExists() error {
	return &ValidationError{
		Code:    CodeEmailExists,
		Message: "The email address is already in use by another account.",
	}
}

func phoneExists() error {
	return &ValidationError{
		Code:    CodePhoneNumberExists,
		Message: "The user with the provided phone number already exists.",
	}
}

func toAccount(record models.Account) *Account {
	account := &Account{
		ID:            record.ID,
		Email:         record.Email,
		DisplayName:   record.DisplayName,
		EmailVerified: record.EmailVerified,
		Disabled:      record.Disabled,
		Claims: permissions.Claims{
			Role: permissions.ParseRole(record.Role),
		},
	}
	if record.PhoneNumber != nil {
		account.PhoneNumber = *record.PhoneNumber
	}
	if record.ChainID != nil {
		account.Claims.ChainID = *record.ChainID
	}
	return account
}

func nullableString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

var _ Store = (*GormStore)(nil)
