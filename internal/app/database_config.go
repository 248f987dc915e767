package app

import (
	"strings"

	"github.com/clothingloop/server/internal/database"
)

// ConnectionConfig converts DatabaseConfig into the database package representation.
// Only the credentials block matching Driver is copied.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver:          strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:            c.Path,
		DSN:             c.DSN,
		MaxOpenConns:    c.Pool.MaxOpenConns,
		MaxIdleConns:    c.Pool.MaxIdleConns,
		ConnMaxLifetime: c.Pool.ConnMaxLifetime,
	}

	remote, ok := c.remote(cfg.Driver)
	if !ok {
		return cfg
	}
	cfg.Host = remote.Host
	cfg.Port = remote.Port
	cfg.User = remote.Username
	cfg.Password = remote.Password
	cfg.Name = remote.Database
	cfg.Options = remote.Options
	return cfg
}

func (c DatabaseConfig) remote(driver string) (DBAuthConfig, bool) {
	switch driver {
	case database.DriverPostgres, "postgresql":
		return c.Postgres, true
	case database.DriverMySQL:
		return c.MySQL, true
	}
	return DBAuthConfig{}, false
}
