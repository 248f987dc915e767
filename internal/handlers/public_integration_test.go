package handlers_test

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clothingloop/server/internal/handlers/testutil"
	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/internal/models"
	"github.com/clothingloop/server/internal/permissions"
	"github.com/clothingloop/server/internal/security"
	"github.com/clothingloop/server/internal/services"
)

var loginTokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

func TestLoginFlow(t *testing.T) {
	env := testutil.NewEnv(t)
	member := env.CreateAccount("member@example.com", permissions.Claims{}, "")

	w := env.Request(http.MethodPost, "/v1/login/email", map[string]any{"email": "member@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	mails := env.Mails(mailqueue.KindLoginLink)
	require.Len(t, mails, 1)
	match := loginTokenPattern.FindStringSubmatch(mails[0].HTML)
	require.Len(t, match, 2, mails[0].HTML)

	w = env.Request(http.MethodPost, "/v1/login/validate", map[string]any{"token": match[1]}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result services.LoginResult
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &result)
	require.NotEmpty(t, result.Token)
	require.NotNil(t, result.User)
	require.Equal(t, member.ID, result.User.UID)
	require.True(t, result.User.EmailVerified)

	w = env.Request(http.MethodGet, "/v1/user?uid="+member.ID, nil, result.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodPost, "/v1/login/validate", map[string]any{"token": match[1]}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "INVALID_LOGIN_TOKEN", testutil.DecodeResponse(t, w).Error.Code)
}

func TestLoginEmailUnknownUser(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/v1/login/email", map[string]any{"email": "ghost@example.com"}, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "USER_NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)

	w = env.Request(http.MethodPost, "/v1/login/email", map[string]any{"email": "nope"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactEndpoints(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/v1/contact/mail", map[string]any{
		"name":    "Visitor",
		"email":   "visitor@example.com",
		"message": "Is there a loop in Utrecht?",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, env.Mails(mailqueue.KindContactTeam), 1)
	require.Len(t, env.Mails(mailqueue.KindContactConfirm), 1)

	w = env.Request(http.MethodPost, "/v1/contact/newsletter", map[string]any{
		"name":  "Visitor",
		"email": "Visitor@Example.com",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, env.Mails(mailqueue.KindNewsletterConfirm), 1)

	var interested models.InterestedUser
	require.NoError(t, env.DB.First(&interested).Error)
	require.Equal(t, "visitor@example.com", interested.Email)

	w = env.Request(http.MethodPost, "/v1/contact/mail", map[string]any{"name": "No message"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInfoEndpoint(t *testing.T) {
	env := testutil.NewEnv(t)
	host := env.CreateAccount("host@example.com", permissions.Claims{Role: permissions.RoleChainAdmin}, "")
	env.CreateChain(host.ID, true)
	env.CreateChain(host.ID, false)
	env.CreateAccount("member@example.com", permissions.Claims{}, "")

	w := env.Request(http.MethodGet, "/v1/info", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var info services.Info
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &info)
	require.Equal(t, int64(1), info.TotalChains)
	require.Equal(t, int64(2), info.TotalUsers)
}

func TestAdminAuditEndpoint(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAccount("admin@example.com", permissions.Claims{Role: permissions.RoleAdmin}, "")
	member := env.CreateAccount("member@example.com", permissions.Claims{}, "")
	target := env.CreateAccount("target@example.com", permissions.Claims{}, "")

	w := env.Request(http.MethodPost, "/v1/chain/create", map[string]any{"uid": target.ID, "name": "Nope"}, env.Token(member))
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/v1/admin/audit", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.Request(http.MethodGet, "/v1/admin/audit", nil, env.Token(member))
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/v1/admin/audit?action=chain.create&result=denied", nil, env.Token(admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	var logs []models.AuditLog
	testutil.DecodeInto(t, resp.Data, &logs)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].ActorID)
	require.Equal(t, member.ID, *logs[0].ActorID)
	require.NotNil(t, resp.Meta)
	require.Equal(t, 1, resp.Meta.Total)

	w = env.Request(http.MethodGet, "/v1/admin/audit/summary?hours=1", nil, env.Token(admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary struct {
		Counts []services.AuditCount `json:"counts"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &summary)
	require.Contains(t, summary.Counts, services.AuditCount{Action: services.AuditActionChainCreate, Result: "denied", Count: 1})
}

func TestPublicEndpointsAreRateLimited(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithRateLimit(2, time.Minute))
	body := map[string]any{"name": "Visitor", "email": "visitor@example.com"}

	for i := 0; i < 2; i++ {
		w := env.Request(http.MethodPost, "/v1/contact/newsletter", body, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := env.Request(http.MethodPost, "/v1/contact/newsletter", body, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "RATE_LIMIT_EXCEEDED", testutil.DecodeResponse(t, w).Error.Code)
}

func TestAdminSecurityEndpoint(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithAdminEmails("admin@example.com"))
	admin := env.CreateAccount("admin@example.com", permissions.Claims{Role: permissions.RoleAdmin}, "")
	member := env.CreateAccount("member@example.com", permissions.Claims{}, "")

	w := env.Request(http.MethodGet, "/v1/admin/security", nil, env.Token(member))
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/v1/admin/security", nil, env.Token(admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result security.Result
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &result)
	require.Len(t, result.Checks, 6)
	require.Equal(t, "global_admin_present", result.Checks[0].ID)
	require.Equal(t, security.StatusPass, result.Checks[0].Status)
}

func TestAdminLogLevelEndpoint(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithAdminEmails("admin@example.com"))
	admin := env.CreateAccount("admin@example.com", permissions.Claims{Role: permissions.RoleAdmin}, "")
	member := env.CreateAccount("member@example.com", permissions.Claims{}, "")

	w := env.Request(http.MethodGet, "/v1/admin/log-level", nil, env.Token(member))
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/v1/admin/log-level", nil, env.Token(admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), `"level"`)
}

func TestAdminDisableUserEndpoint(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithAdminEmails("admin@example.com"))
	admin := env.CreateAccount("admin@example.com", permissions.Claims{Role: permissions.RoleAdmin}, "")
	member := env.CreateAccount("member@example.com", permissions.Claims{}, "")
	memberToken := env.Token(member)

	body := map[string]any{"uid": admin.ID, "disabled": true}
	w := env.Request(http.MethodPatch, "/v1/admin/user/disabled", body, memberToken)
	require.Equal(t, http.StatusForbidden, w.Code)

	body = map[string]any{"uid": member.ID, "disabled": true}
	w = env.Request(http.MethodPatch, "/v1/admin/user/disabled", body, env.Token(admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/v1/user?uid="+member.ID, nil, memberToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.Request(http.MethodPatch, "/v1/admin/user/disabled", map[string]any{"disabled": true}, env.Token(admin))
	require.Equal(t, http.StatusBadRequest, w.Code)
}
