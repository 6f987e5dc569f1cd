package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	f := newFixture(t)

	w, env := f.do(t, http.MethodPost, "/v1/admin/auth/login", "", gin.H{"email": adminEmail, "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	w, env = f.do(t, http.MethodPost, "/v1/admin/auth/login", "", gin.H{"email": "ghost@deryailetisim.com", "password": adminPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	w, _ = f.do(t, http.MethodPost, "/v1/admin/auth/login", "", gin.H{"email": adminEmail})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_BlockedIPCannotSignInEvenWithCorrectPassword(t *testing.T) {
	f := newFixture(t)
	wrong := gin.H{"email": adminEmail, "password": "guess"}

	for i := 0; i < 100; i++ {
		w, _ := f.do(t, http.MethodPost, "/v1/admin/auth/login", "", wrong)
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
	}

	w, env := f.do(t, http.MethodPost, "/v1/admin/auth/login", "", wrong)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Error.Code)

	w, env = f.do(t, http.MethodPost, "/v1/admin/auth/login", "", gin.H{"email": adminEmail, "password": adminPassword})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Error.Code)
	assert.Empty(t, env.Data)
}

func TestLogin_SuccessClearsFailures(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 99; i++ {
		w, _ := f.do(t, http.MethodPost, "/v1/admin/auth/login", "", gin.H{"email": adminEmail, "password": "guess"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	require.NotEmpty(t, f.login(t))

	w, _ := f.do(t, http.MethodPost, "/v1/admin/auth/login", "", gin.H{"email": adminEmail, "password": "guess"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAndLogout(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	w, env := f.do(t, http.MethodGet, "/v1/admin/auth/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var session struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Purpose string `json:"purpose"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Equal(t, adminEmail, session.User.Email)
	assert.Equal(t, "admin", session.Purpose)

	w, _ = f.do(t, http.MethodPost, "/v1/admin/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(t, http.MethodGet, "/v1/admin/auth/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)
}

func TestPasswordReset_Errors(t *testing.T) {
	f := newFixture(t)

	w, env := f.do(t, http.MethodPost, "/v1/admin/auth/password/reset", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_EMAIL", env.Error.Code)

	w, env = f.do(t, http.MethodPost, "/v1/admin/auth/password/reset", "", gin.H{"email": "ghost@deryailetisim.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", env.Error.Code)

	w, _ = f.do(t, http.MethodPost, "/v1/admin/auth/password/reset", "", gin.H{"email": adminEmail})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(t, http.MethodPost, "/v1/admin/auth/password/reset", "", gin.H{"email": adminEmail})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
	assert.EqualValues(t, 1800, env.Error.Details["retryAfterSeconds"])
	assert.Equal(t, "1800", w.Header().Get("Retry-After"))
}

func TestPasswordReset_InvalidLinkRedirects(t *testing.T) {
	f := newFixture(t)

	w, env := f.do(t, http.MethodPost, "/v1/admin/auth/callback", "", gin.H{"code": "made-up"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_RESET_CODE", env.Error.Code)
	assert.Equal(t, "/admin/login", env.Error.Details["redirectTo"])
	assert.EqualValues(t, 3000, env.Error.Details["redirectAfterMs"])

	w, _ = f.do(t, http.MethodPost, "/v1/admin/auth/callback", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordReset_RecoveryFlow(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/v1/admin/auth/password/reset", "", gin.H{"email": adminEmail})
	require.Equal(t, http.StatusOK, w.Code)
	link, err := url.Parse(f.outbox.last())
	require.NoError(t, err)
	code := link.Query().Get("code")

	w, env := f.do(t, http.MethodPost, "/v1/admin/auth/callback", "", gin.H{"code": code})
	require.Equal(t, http.StatusOK, w.Code)
	var recovery struct {
		Token   string `json:"accessToken"`
		Purpose string `json:"purpose"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &recovery))
	assert.Equal(t, "recovery", recovery.Purpose)

	// A recovery session cannot use the panel.
	w, _ = f.do(t, http.MethodGet, "/v1/admin/phones", recovery.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = f.do(t, http.MethodPut, "/v1/admin/auth/password", recovery.Token, gin.H{"password": "yeni-sifre", "confirmPassword": "yeni-sifr"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PASSWORD_MISMATCH", env.Error.Code)
	w, env = f.do(t, http.MethodPut, "/v1/admin/auth/password", recovery.Token, gin.H{"password": "kisa", "confirmPassword": "kisa"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PASSWORD_TOO_SHORT", env.Error.Code)

	w, env = f.do(t, http.MethodPut, "/v1/admin/auth/password", recovery.Token, gin.H{"password": "yeni-sifre", "confirmPassword": "yeni-sifre"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"redirectTo":"/admin/login"`)

	w, _ = f.do(t, http.MethodPut, "/v1/admin/auth/password", recovery.Token, gin.H{"password": "baska-sifre", "confirmPassword": "baska-sifre"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.do(t, http.MethodPost, "/v1/admin/auth/callback", "", gin.H{"code": code})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.do(t, http.MethodPost, "/v1/admin/auth/login", "", gin.H{"email": adminEmail, "password": "yeni-sifre"})
	assert.Equal(t, http.StatusOK, w.Code)
}
