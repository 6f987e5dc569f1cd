package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
)

// AdminCreator stores new admin accounts.
type AdminCreator interface {
	Create(ctx context.Context, user *models.AdminUser) error
}

// CreateAdmin adds an active admin account with a confirmed email. The
// email and password follow the same rules as sign-in and password reset.
func CreateAdmin(ctx context.Context, users AdminCreator, email, password, name string) (*models.AdminUser, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, utils.ErrInvalidEmail
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, utils.ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.AdminUser{
		Email:          email,
		PasswordHash:   string(hashedPassword),
		Name:           strings.TrimSpace(name),
		IsActive:       true,
		EmailConfirmed: true,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to create admin")
		return nil, err
	}
	log.Info().Int("user_id", user.ID).Str("email", email).Msg("Admin created")
	return user, nil
}
