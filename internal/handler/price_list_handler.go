package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/realtime"
	"github.com/muhammedkisla/deryailetisim/internal/service"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
)

// Poker requests an immediate refresh of the live lists.
type Poker interface {
	Poke()
}

// PriceListHandler serves the public price list.
type PriceListHandler struct {
	prices    *service.PriceListService
	phones    service.PhoneSource
	campaigns service.CampaignSource
	refresher Poker
	hub       *realtime.Hub
}

func NewPriceListHandler(prices *service.PriceListService, phones service.PhoneSource, campaigns service.CampaignSource, refresher Poker, hub *realtime.Hub) *PriceListHandler {
	return &PriceListHandler{prices: prices, phones: phones, campaigns: campaigns, refresher: refresher, hub: hub}
}

// Get handles GET /v1/price-list?search=
func (h *PriceListHandler) Get(c *gin.Context) {
	utils.Success(c, http.StatusOK, "Price list retrieved", h.prices.Build(h.phones, h.campaigns, c.Query("search")))
}

// Refresh handles POST /v1/price-list/refresh, sent when the page regains
// focus. Requests are coalesced.
func (h *PriceListHandler) Refresh(c *gin.Context) {
	h.refresher.Poke()
	utils.Success(c, http.StatusAccepted, "Refresh scheduled", nil)
}

// Stream handles GET /v1/price-list/stream
func (h *PriceListHandler) Stream(c *gin.Context) {
	streamChanges(c, h.hub, "price_list", map[string]translator{
		realtime.TablePhones: phoneEvents(models.InStock, func(p models.Phone) any {
			return h.prices.Row(p)
		}),
		realtime.TableCampaigns: campaignEvents(),
	})
}
