package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/realtime"
)

// sseEvent is one message written to an event stream.
type sseEvent struct {
	Name string
	Data any
}

// translator turns a change into a client event. Changes it cannot or
// should not forward return false.
type translator func(realtime.RawChange) (sseEvent, bool)

var pingInterval = 30 * time.Second

// streamChanges opens a subscription per table for this connection and
// writes translated changes as Server-Sent Events until the client leaves.
func streamChanges(c *gin.Context, hub *realtime.Hub, label string, translators map[string]translator) {
	events := make(chan sseEvent, 64)
	for table, translate := range translators {
		sub := hub.Open(table, func(raw realtime.RawChange) {
			ev, ok := translate(raw)
			if !ok {
				return
			}
			select {
			case events <- ev:
			default:
				log.Warn().Str("stream", label).Str("table", raw.Table).Msg("SSE client buffer full, dropping event")
			}
		})
		defer sub.Close()
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	c.SSEvent("connected", gin.H{
		"stream":    label,
		"message":   "SSE connection established",
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("stream", label).Str("ip", c.ClientIP()).Msg("SSE stream started")
	defer log.Info().Str("stream", label).Msg("SSE stream closed")

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-events:
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-ping.C:
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// phoneEvents forwards phone changes. Phones failing visible are sent as
// removals; render shapes the upserted phone.
func phoneEvents(visible func(models.Phone) bool, render func(models.Phone) any) translator {
	return func(raw realtime.RawChange) (sseEvent, bool) {
		change, err := realtime.MapPhone(raw)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping malformed phone change")
			return sseEvent{}, false
		}
		if change.Kind == realtime.KindDelete || (visible != nil && !visible(change.Item)) {
			return sseEvent{Name: "phone.remove", Data: gin.H{"id": change.ID}}, true
		}
		return sseEvent{Name: "phone.upsert", Data: render(change.Item)}, true
	}
}

func campaignEvents() translator {
	return func(raw realtime.RawChange) (sseEvent, bool) {
		change, err := realtime.MapCampaign(raw)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping malformed campaign change")
			return sseEvent{}, false
		}
		if change.Kind == realtime.KindDelete {
			return sseEvent{Name: "campaign.remove", Data: gin.H{"id": change.ID}}, true
		}
		return sseEvent{Name: "campaign.upsert", Data: change.Item}, true
	}
}
