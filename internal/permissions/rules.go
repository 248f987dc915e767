package permissions

import (
	"github.com/clothingloop/server/pkg/metrics"
)

// Operation names a permission-gated request.
type Operation string

const (
	OpCreateChain   Operation = "create_chain"
	OpAssignChain   Operation = "assign_chain"
	OpUpdateProfile Operation = "update_profile"
	OpReadProfile   Operation = "read_profile"
)

// DeniedMessage is the caller-facing text returned when op is refused.
func (op Operation) DeniedMessage() string {
	switch op {
	case OpCreateChain, OpAssignChain:
		return "You don't have permission to change this user's chain"
	case OpUpdateProfile:
		return "You don't have permission to update this user"
	case OpReadProfile:
		return "You don't have permission to retrieve information about this user"
	default:
		return "Permission denied"
	}
}

// ChainCreationTarget is the state of the account a chain is created for.
type ChainCreationTarget struct {
	AccountID      string
	Claims         Claims
	ProfileChainID string
}

// CanCreateChain allows a global admin unconditionally. Anyone else may only
// create a chain for themselves while they belong to no chain and hold no
// chainAdmin role.
func CanCreateChain(caller AuthContext, target ChainCreationTarget) bool {
	if IsGlobalAdmin(caller) {
		return record(OpCreateChain, true)
	}
	if !IsSelf(caller.AccountID, target.AccountID) {
		return record(OpCreateChain, false)
	}
	free := target.ProfileChainID == "" &&
		target.Claims.ChainID == "" &&
		target.Claims.Role != RoleChainAdmin
	return record(OpCreateChain, free)
}

// ClaimsAfterChainCreated scopes the creator to the new chain. An existing
// role is kept; otherwise the creator becomes its chainAdmin.
func ClaimsAfterChainCreated(existing Claims, chainID string) Claims {
	role := existing.Role
	if role == RoleNone {
		role = RoleChainAdmin
	}
	return Claims{Role: role, ChainID: chainID}
}

// CanAssignChain allows changing the chain of targetID.
func CanAssignChain(caller AuthContext, targetID string) bool {
	return record(OpAssignChain, IsSelf(caller.AccountID, targetID) || IsGlobalAdmin(caller))
}

// IsDuplicateMembership reports an assignment to the chain already held.
func IsDuplicateMembership(currentChainID, chainID string) bool {
	return currentChainID != "" && currentChainID == chainID
}

// ClaimsAfterChainSwitch moves the claims to chainID. A chainAdmin loses the
// role when switching; any other role is kept.
func ClaimsAfterChainSwitch(existing Claims, chainID string) Claims {
	role := existing.Role
	if role == RoleChainAdmin {
		role = RoleNone
	}
	return Claims{Role: role, ChainID: chainID}
}

// CanUpdateProfile allows editing the account and profile of targetID.
func CanUpdateProfile(caller AuthContext, targetID string) bool {
	return record(OpUpdateProfile, IsSelf(caller.AccountID, targetID) || IsGlobalAdmin(caller))
}

// CanReadProfile allows reading targetID, whose claims scope it to targetChainID.
func CanReadProfile(caller AuthContext, targetID, targetChainID string) bool {
	allowed := IsSelf(caller.AccountID, targetID) ||
		IsGlobalAdmin(caller) ||
		IsScopedChainAdmin(caller, targetChainID)
	return record(OpReadProfile, allowed)
}

// ClaimsAtRegistration grants admin to allow-listed emails and scopes the new
// account to the chain it registered for.
func ClaimsAtRegistration(email, chainID string, adminEmails []string) Claims {
	claims := Claims{ChainID: chainID}
	if IsAllowListed(email, adminEmails) {
		claims.Role = RoleAdmin
	}
	return claims
}

func record(op Operation, allowed bool) bool {
	result := "deny"
	if allowed {
		result = "allow"
	}
	metrics.PermissionDecisions.WithLabelValues(string(op), result).Inc()
	return allowed
}
