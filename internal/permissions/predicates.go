package permissions

import "strings"

// IsSelf reports whether the caller acts on its own account.
func IsSelf(callerID, targetID string) bool {
	callerID = strings.TrimSpace(callerID)
	return callerID != "" && callerID == strings.TrimSpace(targetID)
}

// IsGlobalAdmin reports whether the caller holds the global admin role.
func IsGlobalAdmin(caller AuthContext) bool {
	return caller.Authenticated() && caller.Role == RoleAdmin
}

// IsScopedChainAdmin reports whether the caller administers chainID.
func IsScopedChainAdmin(caller AuthContext, chainID string) bool {
	chainID = strings.TrimSpace(chainID)
	return caller.Authenticated() &&
		caller.Role == RoleChainAdmin &&
		chainID != "" &&
		caller.ChainID == chainID
}

// IsAllowListed reports whether email appears in the admin allow-list.
// Comparison ignores case and surrounding whitespace.
func IsAllowListed(email string, allowList []string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, candidate := range allowList {
		if strings.ToLower(strings.TrimSpace(candidate)) == email {
			return true
		}
	}
	return false
}
