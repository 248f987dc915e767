package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/auth"
	"github.com/clothingloop/server/internal/database/testutil"
	"github.com/clothingloop/server/internal/identity"
	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/internal/permissions"
)

type harness struct {
	db       *gorm.DB
	accounts *identity.GormStore
	queue    *mailqueue.Queue
	audit    *AuditService
	jwt      *auth.JWTService
	login    *LoginService
	users    *UserService
	chains   *ChainService
	now      time.Time
}

func newHarness(t *testing.T, adminEmails ...string) *harness {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	h := &harness{db: db, now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return h.now }

	var err error
	h.accounts, err = identity.NewGormStore(db)
	require.NoError(t, err)
	h.queue, err = mailqueue.NewQueue(db)
	require.NoError(t, err)
	h.audit, err = NewAuditService(db)
	require.NoError(t, err)
	h.jwt, err = auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "clothingloop", Clock: clock})
	require.NoError(t, err)
	h.login, err = NewLoginService(db, h.accounts, h.queue, h.jwt, h.audit, LoginServiceConfig{
		BaseDomain: "https://loop.example.com/",
		TokenTTL:   time.Hour,
		Clock:      clock,
	})
	require.NoError(t, err)
	h.users, err = NewUserService(db, h.accounts, h.queue, h.login, h.audit, UserServiceConfig{AdminEmails: adminEmails})
	require.NoError(t, err)
	h.chains, err = NewChainService(db, h.accounts, h.queue, h.audit)
	require.NoError(t, err)

	return h
}

// seedAccount creates an account with claims and, when profileChainID is set, a profile in that chain.
func (h *harness) seedAccount(t *testing.T, email string, claims permissions.Claims, profileChainID string) *identity.Account {
	t.Helper()

	account, err := h.accounts.Create(context.Background(), identity.CreateAccountInput{
		Email:       email,
		DisplayName: email[:1],
		Claims:      claims,
	})
	require.NoError(t, err)

	profile := models.UserProfile{
		AccountID:       account.ID,
		ChainID:         stringPtr(profileChainID),
		InterestedSizes: models.EncodeStrings(nil),
	}
	require.NoError(t, h.db.Create(&profile).Error)
	return account
}

func (h *harness) seedChain(t *testing.T, adminID string, published bool) *models.Chain {
	t.Helper()

	chain := models.Chain{
		Name:       "Loop " + adminID[:4],
		ChainAdmin: adminID,
		Categories: models.EncodeStrings([]string{"women"}),
	}
	require.NoError(t, h.db.Create(&chain).Error)
	if published {
		require.NoError(t, h.db.Model(&chain).Update("published", true).Error)
		chain.Published = true
	}
	return &chain
}

func (h *harness) mails(t *testing.T, kind string) []models.Mail {
	t.Helper()

	var mails []models.Mail
	require.NoError(t, h.db.Where("kind = ?", kind).Order("created_at ASC").Find(&mails).Error)
	return mails
}

func (h *harness) claims(t *testing.T, id string) permissions.Claims {
	t.Helper()

	account, err := h.accounts.Get(context.Background(), id)
	require.NoError(t, err)
	return account.Claims
}

func (h *harness) profileChain(t *testing.T, id string) string {
	t.Helper()

	profile, err := loadProfile(context.Background(), h.db, id)
	require.NoError(t, err)
	require.NotNil(t, profile)
	return optionalString(profile.ChainID)
}

func callerFor(account *identity.Account) permissions.AuthContext {
	return permissions.AuthContext{
		AccountID: account.ID,
		Role:      account.Claims.Role,
		ChainID:   account.Claims.ChainID,
	}
}
