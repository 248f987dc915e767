package permissions

import "strings"

// Role is the authorization tier carried in an account's claims.
type Role string

const (
	RoleNone       Role = ""
	RoleChainAdmin Role = "chainAdmin"
	RoleAdmin      Role = "admin"
)

// ParseRole maps a stored role string to a Role. Unknown values grant nothing.
func ParseRole(value string) Role {
	switch Role(strings.TrimSpace(value)) {
	case RoleAdmin:
		return RoleAdmin
	case RoleChainAdmin:
		return RoleChainAdmin
	default:
		return RoleNone
	}
}

// String returns the stored representation of the role.
func (r Role) String() string {
	return string(r)
}

// Claims is the authorization record attached to an account.
type Claims struct {
	Role    Role   `json:"role,omitempty"`
	ChainID string `json:"chainId,omitempty"`
}

// AuthContext describes the authenticated caller of a request.
type AuthContext struct {
	AccountID string
	Role      Role
	ChainID   string
}

// Authenticated reports whether the context carries a caller identity.
func (a AuthContext) Authenticated() bool {
	return strings.TrimSpace(a.AccountID) != ""
}

// Claims returns the caller's claims record.
func (a AuthContext) Claims() Claims {
	return Claims{Role: a.Role, ChainID: a.ChainID}
}
