package app

import (
	"strings"

	"github.com/clothingloop/server/internal/cache"
	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/pkg/mail"
)

// The methods below hand each package its own settings type so those
// packages never import app.

// SMTPSettings returns the relay settings for pkg/mail.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	s := c.SMTP
	return mail.SMTPSettings{
		Enabled:  s.Enabled,
		Host:     strings.TrimSpace(s.Host),
		Port:     s.Port,
		Username: s.Username,
		Password: s.Password,
		From:     strings.TrimSpace(s.From),
		FromName: strings.TrimSpace(s.FromName),
		UseTLS:   s.UseTLS,
		Timeout:  s.Timeout,
	}
}

// RedisClientConfig returns the connection settings for cache.NewRedisStore.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	r := c.Redis
	return cache.RedisConfig{
		Address:  strings.TrimSpace(r.Address),
		Username: strings.TrimSpace(r.Username),
		Password: r.Password,
		DB:       r.DB,
		TLS:      r.TLS,
		Timeout:  r.Timeout,
	}
}

// DispatcherConfig returns the queue dispatcher settings. The recipient
// override is dropped in production.
func (c Config) DispatcherConfig() mailqueue.DispatcherConfig {
	cfg := mailqueue.DispatcherConfig{BatchSize: c.Mail.BatchSize}
	if !c.Server.IsProduction() {
		cfg.OverrideRecipient = strings.TrimSpace(c.Mail.OverrideRecipient)
	}
	return cfg
}

// RoutingKeyOrDefault returns the configured routing key or the queue default.
func (c RabbitMQConfig) RoutingKeyOrDefault() string {
	if key := strings.TrimSpace(c.RoutingKey); key != "" {
		return key
	}
	return mailqueue.DefaultRoutingKey
}
