package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/app"
	iauth "github.com/clothingloop/server/internal/auth"
	"github.com/clothingloop/server/internal/cache"
	"github.com/clothingloop/server/internal/handlers"
	"github.com/clothingloop/server/internal/identity"
	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/internal/middleware"
	"github.com/clothingloop/server/internal/monitoring"
	"github.com/clothingloop/server/internal/monitoring/checks"
	"github.com/clothingloop/server/internal/security"
	"github.com/clothingloop/server/internal/services"
)

// Dependencies are the shared collaborators built once at start-up.
type Dependencies struct {
	Accounts identity.Store
	Queue    *mailqueue.Queue
	// Cache backs rate limiting and the info counters. Optional.
	Cache cache.Store
	// Audit is built from db when nil.
	Audit *services.AuditService
	// Health defaults to a single database readiness probe.
	Health *monitoring.HealthManager
}

// NewRouter builds the Gin engine, wires middleware and registers the /v1 routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Accounts == nil {
		return nil, fmt.Errorf("identity store must be provided")
	}
	if deps.Queue == nil {
		return nil, fmt.Errorf("mail queue must be provided")
	}

	audit := deps.Audit
	if audit == nil {
		var err error
		if audit, err = services.NewAuditService(db); err != nil {
			return nil, err
		}
	}

	loginSvc, err := services.NewLoginService(db, deps.Accounts, deps.Queue, jwt, audit, services.LoginServiceConfig{
		BaseDomain: cfg.ClothingLoop.BaseDomain,
		TokenTTL:   cfg.Auth.LoginTokenLifetime(),
	})
	if err != nil {
		return nil, err
	}
	userSvc, err := services.NewUserService(db, deps.Accounts, deps.Queue, loginSvc, audit, services.UserServiceConfig{
		AdminEmails: cfg.ClothingLoop.AdminEmails,
	})
	if err != nil {
		return nil, err
	}
	chainSvc, err := services.NewChainService(db, deps.Accounts, deps.Queue, audit)
	if err != nil {
		return nil, err
	}
	contactSvc, err := services.NewContactService(db, deps.Queue, cfg.ClothingLoop.ContactEmails)
	if err != nil {
		return nil, err
	}
	infoSvc, err := services.NewInfoService(db, deps.Accounts, deps.Cache)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestOrigin())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))
	r.Use(middleware.CORS(cfg.ClothingLoop.FrontendOrigin()))

	health := deps.Health
	if health == nil {
		health = monitoring.NewHealthManager()
		health.RegisterReadiness(checks.Database(db, 0))
	}
	registerHealthRoutes(r, health)

	requireAuth := middleware.Auth(jwt, deps.Accounts)
	optionalAuth := middleware.OptionalAuth(jwt, deps.Accounts)
	limited := middleware.RateLimit(middleware.NewRateStore(deps.Cache), cfg.RateLimit.Requests, cfg.RateLimit.Window)

	v1 := r.Group("/v1")
	users := handlers.NewUserHandler(userSvc)
	registerUserRoutes(v1, users, requireAuth, limited)
	registerChainRoutes(v1, handlers.NewChainHandler(chainSvc), requireAuth, optionalAuth)
	registerContactRoutes(v1, handlers.NewContactHandler(contactSvc), limited)
	registerLoginRoutes(v1, handlers.NewLoginHandler(loginSvc), limited)
	registerInfoRoutes(v1, handlers.NewInfoHandler(infoSvc))
	registerAdminRoutes(v1, handlers.NewAuditHandler(audit), handlers.NewSecurityHandler(security.NewAuditService(db, cfg, security.WithActivity(audit))), users, requireAuth)

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
