package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/api"
	"github.com/clothingloop/server/internal/app"
	iauth "github.com/clothingloop/server/internal/auth"
	"github.com/clothingloop/server/internal/cache"
	sharedtestutil "github.com/clothingloop/server/internal/database/testutil"
	"github.com/clothingloop/server/internal/identity"
	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/internal/permissions"
	"github.com/clothingloop/server/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	Accounts *identity.GormStore
	Config   *app.Config
}

// EnvOption adjusts the configuration used by NewEnv.
type EnvOption func(*app.Config)

// WithAdminEmails sets the global admin allow-list.
func WithAdminEmails(emails ...string) EnvOption {
	return func(cfg *app.Config) {
		cfg.ClothingLoop.AdminEmails = emails
	}
}

// WithRateLimit enables the public endpoint rate limiter.
func WithRateLimit(requests int, window time.Duration) EnvOption {
	return func(cfg *app.Config) {
		cfg.RateLimit = app.RateLimitConfig{Requests: requests, Window: window}
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	jwtSecret := "test-suite-super-secret-key-32-bytes!!"
	cfg := &app.Config{
		ClothingLoop: app.ClothingLoopConfig{
			BaseDomain:    "https://loop.example.com",
			ContactEmails: []string{"team@example.com"},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: jwtSecret,
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			LoginTokenTTL: time.Hour,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	accounts, err := identity.NewGormStore(db)
	require.NoError(t, err)
	queue, err := mailqueue.NewQueue(db)
	require.NoError(t, err)
	store := cache.NewDatabaseStore(db)

	router, err := api.NewRouter(db, jwtSvc, cfg, api.Dependencies{
		Accounts: accounts,
		Queue:    queue,
		Cache:    store,
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		Accounts: accounts,
		Config:   cfg,
	}
}

// CreateAccount inserts an account with the given claims and a profile placed in profileChainID.
func (e *Env) CreateAccount(email string, claims permissions.Claims, profileChainID string) *identity.Account {
	e.T.Helper()

	account, err := e.Accounts.Create(context.Background(), identity.CreateAccountInput{
		Email:       email,
		DisplayName: "Test " + email,
		Claims:      claims,
	})
	require.NoError(e.T, err)

	profile := models.UserProfile{AccountID: account.ID, InterestedSizes: models.EncodeStrings(nil)}
	if profileChainID != "" {
		profile.ChainID = &profileChainID
	}
	require.NoError(e.T, e.DB.Create(&profile).Error)
	return account
}

// CreateChain inserts a chain administered by adminID.
func (e *Env) CreateChain(adminID string, published bool) string {
	e.T.Helper()

	chain := models.Chain{
		Name:       "Loop " + uuid.NewString()[:8],
		ChainAdmin: adminID,
		Published:  published,
		Categories: models.EncodeStrings(nil),
	}
	require.NoError(e.T, e.DB.Create(&chain).Error)
	return chain.ID
}

// Token issues an access token for the account.
func (e *Env) Token(account *identity.Account) string {
	e.T.Helper()

	token, err := e.JWT.GenerateAccessToken(iauth.AccessTokenInput{
		AccountID: account.ID,
		Email:     account.Email,
	})
	require.NoError(e.T, err)
	return token
}

// Claims reloads the stored claims of an account.
func (e *Env) Claims(accountID string) permissions.Claims {
	e.T.Helper()

	account, err := e.Accounts.Get(context.Background(), accountID)
	require.NoError(e.T, err)
	return account.Claims
}

// Mails returns queued mails of the given kind.
func (e *Env) Mails(kind string) []models.Mail {
	e.T.Helper()

	var mails []models.Mail
	require.NoError(e.T, e.DB.Where("kind = ?", kind).Order("created_at").Find(&mails).Error)
	return mails
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
