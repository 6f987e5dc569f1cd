package utils

import "errors"

// Common application errors used across services.
var (
	ErrBrandRequired     = errors.New("BRAND_REQUIRED")
	ErrModelRequired     = errors.New("MODEL_REQUIRED")
	ErrColorsRequired    = errors.New("COLORS_REQUIRED")
	ErrInvalidPrice      = errors.New("INVALID_PRICE")
	ErrInvalidRate       = errors.New("INVALID_RATE")
	ErrPhoneNotFound     = errors.New("PHONE_NOT_FOUND")
	ErrBankNameRequired  = errors.New("BANK_NAME_REQUIRED")
	ErrDescriptionNeeded = errors.New("DESCRIPTION_REQUIRED")
	ErrCampaignNotFound  = errors.New("CAMPAIGN_NOT_FOUND")

	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrInvalidSession     = errors.New("INVALID_SESSION")
	ErrRecoveryOnly       = errors.New("RECOVERY_SESSION_NOT_ALLOWED")
	ErrInvalidEmail       = errors.New("INVALID_EMAIL")
	ErrUserNotFound       = errors.New("USER_NOT_FOUND")
	ErrRateLimited        = errors.New("RATE_LIMITED")
	ErrEmailNotConfirmed  = errors.New("EMAIL_NOT_CONFIRMED")
	ErrInvalidResetCode   = errors.New("INVALID_RESET_CODE")
	ErrPasswordTooShort   = errors.New("PASSWORD_TOO_SHORT")
	ErrPasswordMismatch   = errors.New("PASSWORD_MISMATCH")
	ErrMailerFailed       = errors.New("MAIL_DELIVERY_FAILED")
)
