package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/muhammedkisla/deryailetisim/internal/utils"
)

// PhoneExister reports whether the phones table has any row.
type PhoneExister interface {
	Exists(ctx context.Context) (bool, error)
}

// HeartbeatHandler serves the keep-alive endpoint hit by an external
// scheduler so the database never idles out.
type HeartbeatHandler struct {
	phones PhoneExister
	secret string
}

func NewHeartbeatHandler(phones PhoneExister, secret string) *HeartbeatHandler {
	return &HeartbeatHandler{phones: phones, secret: secret}
}

// Beat handles GET /api/heartbeat?token=<secret>
func (h *HeartbeatHandler) Beat(c *gin.Context) {
	if !utils.SecretEqual(c.Query("token"), h.secret) {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}

	hasRows, err := h.phones.Exists(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Heartbeat query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"timestamp": utils.NowISO(),
		"hasRows":   hasRows,
	})
}
