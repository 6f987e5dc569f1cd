package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muhammedkisla/deryailetisim/internal/service"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
)

// CampaignHandler serves the admin campaign table endpoints.
type CampaignHandler struct {
	campaigns *service.CampaignService
	list      service.CampaignSource
}

func NewCampaignHandler(campaigns *service.CampaignService, list service.CampaignSource) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, list: list}
}

// List handles GET /v1/admin/campaigns
func (h *CampaignHandler) List(c *gin.Context) {
	utils.Success(c, http.StatusOK, "Campaigns retrieved", h.list.Snapshot())
}

// Create handles POST /v1/admin/campaigns
func (h *CampaignHandler) Create(c *gin.Context) {
	var req service.CampaignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	campaign, err := h.campaigns.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create campaign")
		return
	}
	utils.Success(c, http.StatusCreated, "Campaign created", campaign)
}

// Update handles PUT /v1/admin/campaigns/:id
func (h *CampaignHandler) Update(c *gin.Context) {
	var req service.CampaignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	campaign, err := h.campaigns.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "Failed to update campaign")
		return
	}
	utils.Success(c, http.StatusOK, "Campaign updated", campaign)
}

// Delete handles DELETE /v1/admin/campaigns/:id
func (h *CampaignHandler) Delete(c *gin.Context) {
	if err := h.campaigns.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete campaign")
		return
	}
	utils.Success(c, http.StatusOK, "Campaign deleted", nil)
}
