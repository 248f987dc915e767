package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clothingloop/server/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.True(t, cfg.Server.IsProduction())

	require.Equal(t, "europe-west4", cfg.ClothingLoop.Region)
	require.Equal(t, []string{"boss@example.com", "owner@example.com"}, cfg.ClothingLoop.AdminEmails)
	require.Equal(t, []string{"hello@example.com", "team@example.com"}, cfg.ClothingLoop.ContactEmails)
	require.Equal(t, "https://www.clothingloop.org", cfg.ClothingLoop.BaseDomain)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "require", cfg.Database.Postgres.Options["sslmode"])
	require.Equal(t, 20, cfg.Database.Pool.MaxOpenConns)
	require.Equal(t, 5, cfg.Database.Pool.MaxIdleConns)
	require.Equal(t, time.Hour, cfg.Database.Pool.ConnMaxLifetime)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2*time.Second, cfg.Cache.Redis.Timeout)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "clothingloop-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 2*time.Hour, cfg.Auth.LoginTokenTTL)

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
	require.Equal(t, "smtp-user", cfg.Email.SMTP.Username)
	require.Equal(t, "smtp-pass", cfg.Email.SMTP.Password)
	require.Equal(t, "no-reply@example.com", cfg.Email.SMTP.From)
	require.Equal(t, "The Clothing Loop", cfg.Email.SMTP.FromName)
	require.True(t, cfg.Email.SMTP.UseTLS)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)

	require.Equal(t, "@every 1m", cfg.Mail.DispatchSchedule)
	require.Equal(t, 10, cfg.Mail.BatchSize)
	require.Equal(t, "dev@example.com", cfg.Mail.OverrideRecipient)
	require.False(t, cfg.Mail.RabbitMQ.Enabled)
	require.Equal(t, "loop.mail", cfg.Mail.RabbitMQ.Exchange)
	require.Equal(t, "mail.queued", cfg.Mail.RabbitMQ.RoutingKeyOrDefault())

	require.Equal(t, 5, cfg.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8084, cfg.Server.Port)
	require.False(t, cfg.Server.IsProduction())
	require.Equal(t, "europe-west1", cfg.ClothingLoop.Region)
	require.Empty(t, cfg.ClothingLoop.AdminEmails)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, "@every 30s", cfg.Mail.DispatchSchedule)
	require.Equal(t, 50, cfg.Mail.BatchSize)
	require.Equal(t, 30, cfg.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("CLOTHINGLOOP_SERVER_PORT", "7070")
	t.Setenv("CLOTHINGLOOP_CLOTHINGLOOP_ADMIN_EMAILS", "a@example.com;b@example.com")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.ClothingLoop.AdminEmails)
}

func TestLoadConfigRejectsTwoMailDeliveries(t *testing.T) {
	t.Setenv("CLOTHINGLOOP_EMAIL_SMTP_ENABLED", "true")
	t.Setenv("CLOTHINGLOOP_MAIL_RABBITMQ_ENABLED", "true")

	_, err := LoadConfig(t.TempDir())
	require.ErrorContains(t, err, "mutually exclusive")

	t.Setenv("CLOTHINGLOOP_EMAIL_SMTP_ENABLED", "false")
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.True(t, cfg.Mail.RabbitMQ.Enabled)
	require.False(t, cfg.Email.SMTP.Enabled)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret:          "secret",
			PreviousSecrets: []string{"rotated"},
			Issuer:          "issuer",
			TTL:             30 * time.Minute,
		},
		LoginTokenTTL: time.Hour,
	}

	require.Equal(t, auth.JWTConfig{
		Secret:          "secret",
		PreviousSecrets: []string{"rotated"},
		Issuer:          "issuer",
		AccessTokenTTL:  30 * time.Minute,
	}, cfg.JWTServiceConfig())
	require.Equal(t, time.Hour, cfg.LoginTokenLifetime())
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	require.Equal(t, auth.DefaultAccessTokenTTL, cfg.JWTServiceConfig().AccessTokenTTL)
	require.Equal(t, DefaultLoginTokenTTL, cfg.LoginTokenLifetime())
}

func TestEmailConfigAdapter(t *testing.T) {
	cfg := EmailConfig{
		SMTP: SMTPConfig{
			Enabled:  true,
			Host:     "smtp.example.com",
			Port:     2525,
			Username: "user",
			Password: "pass",
			From:     "no-reply@example.com",
			FromName: "The Clothing Loop",
			UseTLS:   true,
			Timeout:  10 * time.Second,
		},
	}

	settings := cfg.SMTPSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "smtp.example.com", settings.Host)
	require.Equal(t, 2525, settings.Port)
	require.Equal(t, "user", settings.Username)
	require.Equal(t, "pass", settings.Password)
	require.Equal(t, "no-reply@example.com", settings.From)
	require.Equal(t, "The Clothing Loop", settings.FromName)
	require.True(t, settings.UseTLS)
	require.Equal(t, 10*time.Second, settings.Timeout)
}

func TestDispatcherConfigDropsOverrideInProduction(t *testing.T) {
	cfg := Config{Mail: MailConfig{BatchSize: 5, OverrideRecipient: "dev@example.com"}}
	require.Equal(t, "dev@example.com", cfg.DispatcherConfig().OverrideRecipient)
	require.Equal(t, 5, cfg.DispatcherConfig().BatchSize)

	cfg.Server.Environment = "production"
	require.Empty(t, cfg.DispatcherConfig().OverrideRecipient)
}

func TestDatabaseConnectionConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: "MySQL",
		MySQL: DBAuthConfig{
			Host:     "db",
			Port:     3307,
			Database: "loop",
			Username: "user",
			Password: "pass",
			Options:  map[string]string{"tls": "preferred"},
		},
		Pool: DBPoolConfig{MaxOpenConns: 4, ConnMaxLifetime: time.Minute},
	}

	conn := cfg.ConnectionConfig()
	require.Equal(t, "mysql", conn.Driver)
	require.Equal(t, "db", conn.Host)
	require.Equal(t, 3307, conn.Port)
	require.Equal(t, "loop", conn.Name)
	require.Equal(t, "user", conn.User)
	require.Equal(t, "preferred", conn.Options["tls"])
	require.Equal(t, 4, conn.MaxOpenConns)
	require.Equal(t, time.Minute, conn.ConnMaxLifetime)

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/loop.sqlite"}.ConnectionConfig()
	require.Equal(t, "./data/loop.sqlite", sqlite.Path)
	require.Empty(t, sqlite.Host)
}

func TestRedisClientConfig(t *testing.T) {
	cfg := CacheConfig{Redis: RedisCacheConfig{Address: " redis:6379 ", DB: 2, Timeout: time.Second}}
	client := cfg.RedisClientConfig()
	require.Equal(t, "redis:6379", client.Address)
	require.Equal(t, 2, client.DB)
	require.Equal(t, time.Second, client.Timeout)
}

func TestFrontendOrigin(t *testing.T) {
	for base, want := range map[string]string{
		"https://www.clothingloop.org/loops": "https://www.clothingloop.org",
		" http://localhost:3000 ":            "http://localhost:3000",
		"clothingloop.org":                   "",
		"":                                   "",
	} {
		require.Equal(t, want, ClothingLoopConfig{BaseDomain: base}.FrontendOrigin(), base)
	}
}
