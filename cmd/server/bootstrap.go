package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/api"
	"github.com/clothingloop/server/internal/app"
	"github.com/clothingloop/server/internal/app/maintenance"
	iauth "github.com/clothingloop/server/internal/auth"
	"github.com/clothingloop/server/internal/cache"
	"github.com/clothingloop/server/internal/database"
	"github.com/clothingloop/server/internal/identity"
	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/internal/monitoring"
	"github.com/clothingloop/server/internal/monitoring/checks"
	"github.com/clothingloop/server/internal/security"
	"github.com/clothingloop/server/internal/services"
	"github.com/clothingloop/server/pkg/logger"
	"github.com/clothingloop/server/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     *cache.RedisStore
	Publisher *mailqueue.AMQPPublisher
	AuditSvc  *services.AuditService
	Cleaner   *maintenance.Cleaner
	Security  *security.AuditService
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, cache, mail queue, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sqlCache := cache.NewDatabaseStore(stack.DB)
	var store cache.Store = sqlCache
	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisStore(cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to database-backed operations", zap.Error(err))
		} else {
			store = stack.Redis
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	var queueOpts []mailqueue.QueueOption
	if cfg.Mail.RabbitMQ.Enabled {
		if stack.Publisher, err = mailqueue.NewAMQPPublisher(cfg.Mail.RabbitMQ.URL, cfg.Mail.RabbitMQ.Exchange); err != nil {
			log.Warn("rabbitmq unavailable; queued mail events will not be published", zap.Error(err))
		} else {
			queueOpts = append(queueOpts, mailqueue.WithPublisher(stack.Publisher, cfg.Mail.RabbitMQ.RoutingKeyOrDefault()))
			log.Info("rabbitmq connected", zap.String("exchange", cfg.Mail.RabbitMQ.Exchange))
		}
	}

	queue, err := mailqueue.NewQueue(stack.DB, queueOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise mail queue: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise smtp mailer: %w", err)
	}
	switch {
	case cfg.Email.SMTP.Enabled:
	case stack.Publisher != nil:
		log.Info("smtp disabled; mail delivery left to rabbitmq consumers")
	default:
		log.Warn("smtp disabled; queued mail stays pending")
	}

	dispatcher, err := mailqueue.NewDispatcher(stack.DB, mailer, cfg.DispatcherConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise mail dispatcher: %w", err)
	}

	accounts, err := identity.NewGormStore(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise identity store: %w", err)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	stack.AuditSvc, err = services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	cleanerOpts := []maintenance.Option{
		maintenance.WithMailDispatcher(dispatcher),
		maintenance.WithAuditPruner(stack.AuditSvc),
		maintenance.WithSchedule(maintenance.JobMailDispatch, cfg.Mail.DispatchSchedule),
	}
	if stack.Redis == nil {
		cleanerOpts = append(cleanerOpts, maintenance.WithCachePurger(sqlCache))
	}
	stack.Cleaner = maintenance.NewCleaner(stack.DB, cleanerOpts...)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, cfg, api.Dependencies{
		Accounts: accounts,
		Queue:    queue,
		Cache:    store,
		Audit:    stack.AuditSvc,
		Health:   stack.healthManager(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	stack.Security = security.NewAuditService(stack.DB, cfg, security.WithActivity(stack.AuditSvc))
	logSecurityAudit(ctx, stack.Security, log)

	success = true
	return stack, nil
}

func logSecurityAudit(ctx context.Context, audit *security.AuditService, log *zap.Logger) {
	for _, check := range audit.Run(ctx).Checks {
		if check.Status == security.StatusPass {
			continue
		}
		log.Warn("security audit",
			zap.String("check", check.ID),
			zap.String("status", string(check.Status)),
			zap.String("message", check.Message),
			zap.String("remediation", check.Remediation),
		)
	}
}

func (s *runtimeStack) healthManager(cfg *app.Config) *monitoring.HealthManager {
	manager := monitoring.NewHealthManager()
	manager.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))

	manager.RegisterReadiness(checks.Database(s.DB, 0))
	var pinger checks.RedisPinger
	if s.Redis != nil {
		pinger = s.Redis
	}
	manager.RegisterReadiness(checks.Redis(pinger, cfg.Cache.Redis.Enabled, cfg.Cache.Redis.Timeout))
	manager.RegisterReadiness(checks.MailBacklog(s.DB, cfg.Email.SMTP.Enabled, 0, nil))
	return manager
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		if done := s.Cleaner.Stop().Done(); done != nil {
			<-done
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			log.Warn("rabbitmq shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func initialiseDatabase(ctx context.Context, cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Ping(ctx, db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))
	return db, nil
}
