package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clothingloop/server/pkg/crypto"
)

const (
	jwtSecretBytes    = 48
	defaultBaseDomain = "http://localhost:3000"
)

type runtimeDefault struct {
	key  string
	fill func(*Config) (bool, error)
}

var runtimeDefaults = []runtimeDefault{
	{"auth.jwt.secret", func(cfg *Config) (bool, error) {
		if strings.TrimSpace(cfg.Auth.JWT.Secret) != "" {
			return false, nil
		}
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return false, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		return true, nil
	}},
	{"clothingloop.base_domain", func(cfg *Config) (bool, error) {
		domain := strings.TrimRight(strings.TrimSpace(cfg.ClothingLoop.BaseDomain), "/")
		cfg.ClothingLoop.BaseDomain = domain
		if domain != "" {
			return false, nil
		}
		cfg.ClothingLoop.BaseDomain = defaultBaseDomain
		return true, nil
	}},
}

// ApplyRuntimeDefaults fills the values the server cannot start without and
// returns the keys it generated. Generated values are never returned, so the
// keys are safe to log. A generated JWT secret does not survive a restart.
func ApplyRuntimeDefaults(cfg *Config) ([]string, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	var generated []string
	for _, d := range runtimeDefaults {
		filled, err := d.fill(cfg)
		if err != nil {
			return nil, err
		}
		if filled {
			generated = append(generated, d.key)
		}
	}
	return generated, nil
}
