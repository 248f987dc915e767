package app

import (
	"strings"

	"go.uber.org/zap"

	"github.com/clothingloop/server/pkg/logger"
)

// ConfigureLogging initialises the global logger, defaulting to info. Outside
// production the human readable encoder is used. Every entry carries the region.
func ConfigureLogging(server ServerConfig, region string) error {
	level := strings.TrimSpace(server.LogLevel)
	if level == "" {
		level = "info"
	}

	opts := []logger.Option{logger.WithDevelopment(!server.IsProduction())}
	if region = strings.TrimSpace(region); region != "" {
		opts = append(opts, logger.WithFields(zap.String("region", region)))
	}
	return logger.Init(level, opts...)
}
