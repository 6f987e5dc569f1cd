package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/muhammedkisla/deryailetisim/internal/middleware"
	"github.com/muhammedkisla/deryailetisim/internal/service"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
)

type AuthHandler struct {
	authService *service.AuthService
	rateLimiter *middleware.InvalidAuthRateLimiter
}

func NewAuthHandler(authService *service.AuthService, rateLimiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, rateLimiter: rateLimiter}
}

// Login handles POST /v1/admin/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	// A blocked IP gets no password check at all, right or wrong.
	if h.rateLimiter.Blocked(c.ClientIP()) {
		utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many failed login attempts")
		return
	}

	session, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, utils.ErrInvalidCredentials) {
			respondError(c, err, "Login failed")
			return
		}
		if !h.rateLimiter.Allow(c.ClientIP()) {
			utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many failed login attempts")
			return
		}
		utils.Error(c, http.StatusUnauthorized, utils.ErrInvalidCredentials.Error(), "Email or password is incorrect")
		return
	}

	h.rateLimiter.Reset(c.ClientIP())
	utils.Success(c, http.StatusOK, "Login successful", session)
}

// Session handles GET /v1/admin/auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	utils.Success(c, http.StatusOK, "Session retrieved", middleware.GetSession(c))
}

// Logout handles POST /v1/admin/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.SignOut(c.Request.Context(), middleware.GetSession(c)); err != nil {
		respondError(c, err, "Logout failed")
		return
	}
	utils.Success(c, http.StatusOK, "Logged out", nil)
}

// RequestPasswordReset handles POST /v1/admin/auth/password/reset
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		RedirectURL string `json:"redirectUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	err := h.authService.SendPasswordResetEmail(c.Request.Context(), req.Email, req.RedirectURL)
	if err != nil {
		var rl *service.RateLimitError
		if errors.As(err, &rl) {
			seconds := int(math.Ceil(rl.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			utils.ErrorWithDetails(c, http.StatusTooManyRequests, utils.ErrRateLimited.Error(),
				"A reset email was sent recently, please wait before asking again",
				map[string]any{"retryAfterSeconds": seconds})
			return
		}
		respondError(c, err, "Failed to send password reset email")
		return
	}
	utils.Success(c, http.StatusOK, "Password reset email sent", nil)
}

// Callback handles POST /v1/admin/auth/callback, exchanging the code from the
// reset link for a recovery session.
func (h *AuthHandler) Callback(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidLink(c)
		return
	}

	session, err := h.authService.ExchangeCodeForSession(c.Request.Context(), req.Code)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidResetCode) {
			h.invalidLink(c)
			return
		}
		respondError(c, err, "Failed to verify reset link")
		return
	}
	utils.Success(c, http.StatusOK, "Recovery session started", session)
}

// UpdatePassword handles PUT /v1/admin/auth/password
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	session := middleware.GetSession(c)
	if err := h.authService.UpdatePassword(c.Request.Context(), session, req.Password, req.ConfirmPassword); err != nil {
		respondError(c, err, "Failed to update password")
		return
	}

	path, delay := h.authService.LoginRedirect()
	log.Info().Int("user_id", session.User.ID).Msg("Password changed via admin panel")
	utils.Success(c, http.StatusOK, "Password updated", gin.H{
		"redirectTo":      path,
		"redirectAfterMs": delay.Milliseconds(),
		"signedOut":       session.IsRecovery(),
	})
}

func (h *AuthHandler) invalidLink(c *gin.Context) {
	path, delay := h.authService.LoginRedirect()
	utils.ErrorWithDetails(c, http.StatusUnauthorized, utils.ErrInvalidResetCode.Error(),
		"The reset link is invalid or has expired",
		map[string]any{"redirectTo": path, "redirectAfterMs": delay.Milliseconds()})
}
