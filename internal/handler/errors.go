package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/muhammedkisla/deryailetisim/internal/utils"
	"github.com/muhammedkisla/deryailetisim/internal/view"
)

var badRequest = []error{
	utils.ErrBrandRequired,
	utils.ErrModelRequired,
	utils.ErrColorsRequired,
	utils.ErrInvalidPrice,
	utils.ErrInvalidRate,
	utils.ErrBankNameRequired,
	utils.ErrDescriptionNeeded,
	utils.ErrInvalidEmail,
	utils.ErrPasswordTooShort,
	utils.ErrPasswordMismatch,
}

// respondError maps service errors to the response envelope. Unknown errors
// are logged and answered with a 500.
func respondError(c *gin.Context, err error, fallback string) {
	for _, target := range badRequest {
		if errors.Is(err, target) {
			utils.Error(c, http.StatusBadRequest, target.Error(), err.Error())
			return
		}
	}

	switch {
	case errors.Is(err, utils.ErrPhoneNotFound), errors.Is(err, utils.ErrCampaignNotFound), errors.Is(err, utils.ErrUserNotFound):
		utils.Error(c, http.StatusNotFound, codeOf(err), err.Error())
	case errors.Is(err, view.ErrEditSessionAbandoned):
		utils.Error(c, http.StatusConflict, view.ErrEditSessionAbandoned.Error(), "The phone being edited was deleted")
	case errors.Is(err, utils.ErrEmailNotConfirmed):
		utils.Error(c, http.StatusForbidden, utils.ErrEmailNotConfirmed.Error(), "Email address is not confirmed")
	case errors.Is(err, utils.ErrMailerFailed):
		utils.Error(c, http.StatusBadGateway, utils.ErrMailerFailed.Error(), "Email could not be sent")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func codeOf(err error) string {
	for _, target := range []error{utils.ErrPhoneNotFound, utils.ErrCampaignNotFound, utils.ErrUserNotFound} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "INTERNAL_ERROR"
}
