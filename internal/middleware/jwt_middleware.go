package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/muhammedkisla/deryailetisim/internal/service"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
)

const sessionKey = "session"

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*service.Session, error)
}

// JWTMiddleware authenticates admin requests. The token is read from the
// Authorization header or, for EventSource clients, the token query param.
type JWTMiddleware struct {
	sessions    SessionResolver
	rateLimiter *InvalidAuthRateLimiter
}

func NewJWTMiddleware(sessions SessionResolver, rateLimiter *InvalidAuthRateLimiter) *JWTMiddleware {
	return &JWTMiddleware{sessions: sessions, rateLimiter: rateLimiter}
}

// Handle admits full admin sessions only.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return m.handle(false)
}

// AllowRecovery also admits recovery sessions, for the password change route.
func (m *JWTMiddleware) AllowRecovery() gin.HandlerFunc {
	return m.handle(true)
}

func (m *JWTMiddleware) handle(allowRecovery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			m.handleAuthError(c, "UNAUTHORIZED", "Missing or invalid authorization header")
			return
		}

		session, err := m.sessions.GetSession(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, utils.ErrInvalidSession) {
				m.handleAuthError(c, "INVALID_TOKEN", "Invalid or expired token")
				return
			}
			log.Error().Err(err).Msg("Failed to resolve session")
			utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify session")
			c.Abort()
			return
		}

		if session.IsRecovery() && !allowRecovery {
			utils.Error(c, http.StatusForbidden, utils.ErrRecoveryOnly.Error(), "Recovery sessions may only change the password")
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Set("user_id", session.User.ID)
		c.Next()
	}
}

func (m *JWTMiddleware) handleAuthError(c *gin.Context, code, message string) {
	if m.rateLimiter != nil && !m.rateLimiter.Allow(c.ClientIP()) {
		utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}
	utils.Error(c, http.StatusUnauthorized, code, message)
	c.Abort()
}

func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// GetSession returns the authenticated session from context.
func GetSession(c *gin.Context) *service.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*service.Session)
	return session
}
