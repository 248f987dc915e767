package services

import (
	"net/http"

	"github.com/clothingloop/server/internal/permissions"
	apperrors "github.com/clothingloop/server/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested account does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrChainNotFound indicates the requested chain does not exist.
	ErrChainNotFound = apperrors.New("CHAIN_NOT_FOUND", "Chain not found", http.StatusNotFound)
	// ErrInvalidLoginToken covers unknown, expired and already used login links.
	ErrInvalidLoginToken = apperrors.New("INVALID_LOGIN_TOKEN", "Login link is invalid or has expired", http.StatusUnauthorized)
	// ErrAccountDisabled is returned when a disabled account tries to sign in.
	ErrAccountDisabled = apperrors.New("ACCOUNT_DISABLED", "This account has been disabled", http.StatusForbidden)
)

func permissionDenied(op permissions.Operation) error {
	return apperrors.NewPermissionDenied(op.DeniedMessage())
}
