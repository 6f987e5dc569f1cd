package handler

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/muhammedkisla/deryailetisim/internal/middleware"
	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/pricing"
	"github.com/muhammedkisla/deryailetisim/internal/realtime"
	"github.com/muhammedkisla/deryailetisim/internal/service"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
	"github.com/muhammedkisla/deryailetisim/internal/view"
)

const editSessionHeader = "X-Edit-Session"

// AdminPhoneList is the admin view of all phones.
type AdminPhoneList interface {
	Snapshot() []models.Phone
	Get(id string) (models.Phone, bool)
}

// AdminPhone is a phone with its derived prices, when the stored rates fit
// the active convention.
type AdminPhone struct {
	models.Phone
	Prices *pricing.Prices `json:"prices,omitempty"`
}

// AdminBrandGroup holds one brand's phones in list order.
type AdminBrandGroup struct {
	Brand  string       `json:"brand"`
	Phones []AdminPhone `json:"phones"`
}

// AdminPhoneListing is the dashboard list with its stock counters.
type AdminPhoneListing struct {
	Phones     []AdminPhone       `json:"phones"`
	Groups     []AdminBrandGroup  `json:"groups"`
	Total      int                `json:"total"`
	InStock    int                `json:"inStock"`
	OutOfStock int                `json:"outOfStock"`
	Convention pricing.Convention `json:"convention"`
}

// PhoneHandler serves the admin phone management endpoints.
type PhoneHandler struct {
	phones *service.PhoneService
	prices *service.PriceListService
	list   AdminPhoneList
	edits  *view.EditSessions
	hub    *realtime.Hub
}

func NewPhoneHandler(phones *service.PhoneService, prices *service.PriceListService, list AdminPhoneList, edits *view.EditSessions, hub *realtime.Hub) *PhoneHandler {
	return &PhoneHandler{phones: phones, prices: prices, list: list, edits: edits, hub: hub}
}

// List handles GET /v1/admin/phones?search=
func (h *PhoneHandler) List(c *gin.Context) {
	phones := service.FilterPhones(h.list.Snapshot(), c.Query("search"))
	out := AdminPhoneListing{
		Phones:     make([]AdminPhone, 0, len(phones)),
		Groups:     []AdminBrandGroup{},
		Total:      len(phones),
		Convention: h.phones.Calculator().Convention(),
	}

	index := make(map[string]int)
	for _, p := range phones {
		row := h.withPrices(p)
		out.Phones = append(out.Phones, row)
		if p.Stock {
			out.InStock++
		} else {
			out.OutOfStock++
		}

		i, ok := index[p.Brand]
		if !ok {
			i = len(out.Groups)
			index[p.Brand] = i
			out.Groups = append(out.Groups, AdminBrandGroup{Brand: p.Brand})
		}
		out.Groups[i].Phones = append(out.Groups[i].Phones, row)
	}

	cmp := h.prices.BrandOrder()
	slices.SortStableFunc(out.Groups, func(a, b AdminBrandGroup) int { return cmp(a.Brand, b.Brand) })
	utils.Success(c, http.StatusOK, "Phones retrieved", out)
}

// Create handles POST /v1/admin/phones
func (h *PhoneHandler) Create(c *gin.Context) {
	var req service.PhoneInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	p, err := h.phones.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create phone")
		return
	}
	utils.Success(c, http.StatusCreated, "Phone created", h.withPrices(*p))
}

// Update handles PUT /v1/admin/phones/:id. When the request carries an edit
// session, the session must still be open for this phone.
func (h *PhoneHandler) Update(c *gin.Context) {
	id := c.Param("id")
	session := middleware.GetSession(c)
	editID := c.GetHeader(editSessionHeader)

	if editID != "" {
		if err := h.edits.Check(session.User.ID, editID, id); err != nil {
			respondError(c, err, "Failed to update phone")
			return
		}
	}

	var req service.PhoneInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	p, err := h.phones.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update phone")
		return
	}
	if editID != "" {
		h.edits.Reset(session.User.ID)
	}
	utils.Success(c, http.StatusOK, "Phone updated", h.withPrices(*p))
}

// Delete handles DELETE /v1/admin/phones/:id. Edit sessions on the phone are
// abandoned when the delete event reaches the admin list.
func (h *PhoneHandler) Delete(c *gin.Context) {
	if err := h.phones.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete phone")
		return
	}
	utils.Success(c, http.StatusOK, "Phone deleted", nil)
}

// OpenEdit handles POST /v1/admin/phones/:id/edit
func (h *PhoneHandler) OpenEdit(c *gin.Context) {
	id := c.Param("id")
	p, ok := h.list.Get(id)
	if !ok {
		stored, err := h.phones.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, "Failed to load phone")
			return
		}
		p = *stored
	}

	session := middleware.GetSession(c)
	edit := h.edits.Open(session.User.ID, p, h.phones.FormFor(p))
	utils.Success(c, http.StatusOK, "Edit session opened", edit)
}

// CurrentEdit handles GET /v1/admin/edit. With nothing open, the empty form
// is returned.
func (h *PhoneHandler) CurrentEdit(c *gin.Context) {
	session := middleware.GetSession(c)
	if edit, ok := h.edits.Current(session.User.ID); ok {
		utils.Success(c, http.StatusOK, "Edit session retrieved", gin.H{"session": edit, "form": edit.Form})
		return
	}
	utils.Success(c, http.StatusOK, "No edit session", gin.H{"session": nil, "form": h.edits.EmptyForm()})
}

// CancelEdit handles DELETE /v1/admin/edit
func (h *PhoneHandler) CancelEdit(c *gin.Context) {
	h.edits.Reset(middleware.GetSession(c).User.ID)
	utils.Success(c, http.StatusOK, "Edit session closed", gin.H{"form": h.edits.EmptyForm()})
}

// Stream handles GET /v1/admin/stream?token=<jwt>
// EventSource API cannot set custom headers, so the JWT middleware also
// accepts the token query param.
func (h *PhoneHandler) Stream(c *gin.Context) {
	streamChanges(c, h.hub, "admin", map[string]translator{
		realtime.TablePhones: phoneEvents(nil, func(p models.Phone) any {
			return h.withPrices(p)
		}),
		realtime.TableCampaigns: campaignEvents(),
	})
}

func (h *PhoneHandler) withPrices(p models.Phone) AdminPhone {
	out := AdminPhone{Phone: p}
	if prices, err := h.phones.Calculator().Derive(p.CashPrice, p.SinglePaymentRate, p.InstallmentRate); err == nil {
		out.Prices = &prices
	}
	return out
}
