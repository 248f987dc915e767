package app

import (
	"time"

	"github.com/clothingloop/server/internal/auth"
)

// DefaultLoginTokenTTL bounds the lifetime of login and verification links.
const DefaultLoginTokenTTL = 24 * time.Hour

// JWTServiceConfig returns the session token settings with the default
// lifetime filled in.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	cfg := auth.JWTConfig{
		Secret:          c.JWT.Secret,
		PreviousSecrets: c.JWT.PreviousSecrets,
		Issuer:          c.JWT.Issuer,
		AccessTokenTTL:  c.JWT.TTL,
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = auth.DefaultAccessTokenTTL
	}
	return cfg
}

// LoginTokenLifetime returns the configured login link lifetime.
func (c AuthConfig) LoginTokenLifetime() time.Duration {
	if c.LoginTokenTTL <= 0 {
		return DefaultLoginTokenTTL
	}
	return c.LoginTokenTTL
}
