package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clothingloop/server/internal/permissions"
)

// ErrAccountNotFound is returned when no account matches the lookup.
var ErrAccountNotFound = errors.New("identity: account not found")

// Validation error codes reported by the store.
const (
	CodeInvalidEmail       = "auth/invalid-email"
	CodeInvalidPhoneNumber = "auth/invalid-phone-number"
	CodeEmailExists        = "auth/email-already-exists"
	CodePhoneNumberExists  = "auth/phone-number-already-exists"
)

// ValidationError reports account fields the store refused. It is returned to
// API callers as data instead of as a failure.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsValidationError extracts a ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

// Account is the identity view of a participant.
type Account struct {
	ID            string
	Email         string
	PhoneNumber   string
	DisplayName   string
	EmailVerified bool
	Disabled      bool
	Claims        permissions.Claims
}

// CreateAccountInput describes a new account.
type CreateAccountInput struct {
	Email       string
	PhoneNumber string
	DisplayName string
	Claims      permissions.Claims
}

// UpdateAccountInput carries the account fields to change. Nil leaves a field untouched.
type UpdateAccountInput struct {
	DisplayName *string
	PhoneNumber *string
	Disabled    *bool
}

// Store manages accounts and their claims.
type Store interface {
	Create(ctx context.Context, input CreateAccountInput) (*Account, error)
	Get(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Update(ctx context.Context, id string, input UpdateAccountInput) (*Account, error)
	SetClaims(ctx context.Context, id string, claims permissions.Claims) error
	MarkEmailVerified(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
