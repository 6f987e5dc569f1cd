package service

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/muhammedkisla/deryailetisim/internal/cache"
	"github.com/muhammedkisla/deryailetisim/internal/config"
	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/repository"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
)

const minPasswordLength = 6

// UserStore is the admin user storage used by AuthService.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	GetByID(ctx context.Context, id int) (*models.AdminUser, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	TouchLastLogin(ctx context.Context, id int) error
}

// SessionUser identifies the signed-in admin.
type SessionUser struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated admin session. Recovery sessions are issued
// from a password reset link and may only change the password.
type Session struct {
	Token     string      `json:"accessToken"`
	ID        string      `json:"-"`
	User      SessionUser `json:"user"`
	Purpose   string      `json:"purpose"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// IsRecovery reports whether the session came from a reset link.
func (s *Session) IsRecovery() bool { return s.Purpose == utils.PurposeRecovery }

// RateLimitError is returned while a password reset cooldown is running.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("password reset rate limited, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error { return utils.ErrRateLimited }

// AuthService signs admins in and out and runs the password reset flow.
type AuthService struct {
	users  UserStore
	tokens *cache.AuthCache
	jwt    *utils.JWTManager
	mailer Mailer
	cfg    config.AuthConfig
}

func NewAuthService(users UserStore, tokens *cache.AuthCache, jwt *utils.JWTManager, mailer Mailer, cfg config.AuthConfig) *AuthService {
	return &AuthService{users: users, tokens: tokens, jwt: jwt, mailer: mailer, cfg: cfg}
}

// SignIn checks the credentials. Every failure is ErrInvalidCredentials so
// callers cannot tell unknown accounts from wrong passwords.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Warn().Str("email", email).Msg("Login attempt for unknown account")
			return nil, utils.ErrInvalidCredentials
		}
		log.Error().Err(err).Str("email", email).Msg("Failed to get user by email")
		return nil, err
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("Login attempt for inactive account")
		return nil, utils.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", email).Msg("Password verification failed")
		return nil, utils.ErrInvalidCredentials
	}

	session, err := s.issue(user, utils.PurposeAdmin, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int("user_id", user.ID).Msg("Failed to record last login")
	}
	log.Info().Int("user_id", user.ID).Str("email", email).Msg("Login successful")
	return session, nil
}

// GetSession resolves a bearer token to its session.
func (s *AuthService) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, utils.ErrInvalidSession
	}
	claims, err := s.jwt.ValidateJWT(token)
	if err != nil {
		return nil, utils.ErrInvalidSession
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session revocation: %w", err)
	}
	if revoked {
		return nil, utils.ErrInvalidSession
	}

	return &Session{
		Token:     token,
		ID:        claims.ID,
		User:      SessionUser{ID: claims.UserID, Email: claims.Email},
		Purpose:   claims.Purpose,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut revokes the session until it would have expired.
func (s *AuthService) SignOut(ctx context.Context, session *Session) error {
	if err := s.tokens.RevokeSession(ctx, session.ID, session.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	log.Info().Int("user_id", session.User.ID).Msg("Signed out")
	return nil
}

// SendPasswordResetEmail mails a single-use reset link. Failures are
// categorized: ErrInvalidEmail, ErrUserNotFound, ErrEmailNotConfirmed,
// *RateLimitError (matches ErrRateLimited) or ErrMailerFailed.
func (s *AuthService) SendPasswordResetEmail(ctx context.Context, email, redirectURL string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return utils.ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return utils.ErrUserNotFound
		}
		return err
	}
	if !user.IsActive {
		return utils.ErrUserNotFound
	}
	if !user.EmailConfirmed {
		return utils.ErrEmailNotConfirmed
	}

	ok, remaining, err := s.tokens.AcquireResetCooldown(ctx, email, s.cfg.ResetCooldown)
	if err != nil {
		return err
	}
	if !ok {
		log.Warn().Str("email", email).Dur("retry_after", remaining).Msg("Password reset requested during cooldown")
		return &RateLimitError{RetryAfter: remaining}
	}

	code, err := utils.GenerateResetCode()
	if err != nil {
		return err
	}
	if err := s.tokens.PutResetCode(ctx, code, &cache.ResetCode{UserID: user.ID, Email: user.Email}, s.cfg.ResetCodeTTL); err != nil {
		_ = s.tokens.ReleaseResetCooldown(ctx, email)
		return err
	}

	link, err := s.resetLink(redirectURL, code)
	if err != nil {
		_ = s.tokens.ReleaseResetCooldown(ctx, email)
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		_ = s.tokens.ReleaseResetCooldown(ctx, email)
		log.Error().Err(err).Str("email", email).Msg("Failed to send password reset email")
		return fmt.Errorf("%w: %v", utils.ErrMailerFailed, err)
	}

	log.Info().Int("user_id", user.ID).Msg("Password reset email sent")
	return nil
}

// ExchangeCodeForSession trades a reset code for a recovery session. A code
// works once.
func (s *AuthService) ExchangeCodeForSession(ctx context.Context, code string) (*Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, utils.ErrInvalidResetCode
	}

	data, err := s.tokens.TakeResetCode(ctx, code)
	if err != nil {
		if cache.IsMiss(err) {
			return nil, utils.ErrInvalidResetCode
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, data.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.ErrInvalidResetCode
		}
		return nil, err
	}

	return s.issue(user, utils.PurposeRecovery, s.cfg.RecoveryTTL)
}

// UpdatePassword sets a new password for the session's user. A recovery
// session is spent by a successful change.
func (s *AuthService) UpdatePassword(ctx context.Context, session *Session, password, confirm string) error {
	if password != confirm {
		return utils.ErrPasswordMismatch
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return utils.ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, session.User.ID, string(hash)); err != nil {
		log.Error().Err(err).Int("user_id", session.User.ID).Msg("Failed to update password")
		return err
	}

	if session.IsRecovery() {
		if err := s.tokens.RevokeSession(ctx, session.ID, session.ExpiresAt); err != nil {
			log.Warn().Err(err).Int("user_id", session.User.ID).Msg("Failed to revoke recovery session")
		}
	}
	log.Info().Int("user_id", session.User.ID).Bool("recovery", session.IsRecovery()).Msg("Password updated")
	return nil
}

// LoginRedirect is where the client is sent after an invalid reset code.
func (s *AuthService) LoginRedirect() (path string, delay time.Duration) {
	return s.cfg.LoginPath, s.cfg.RedirectDelay
}

func (s *AuthService) issue(user *models.AdminUser, purpose string, ttl time.Duration) (*Session, error) {
	token, claims, err := s.jwt.GenerateJWT(user.ID, user.Email, purpose, ttl)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		ID:        claims.ID,
		User:      SessionUser{ID: user.ID, Email: user.Email},
		Purpose:   purpose,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// resetLink appends the code to the redirect URL. A redirect pointing at a
// host other than the configured one is replaced by the configured URL.
func (s *AuthService) resetLink(redirectURL, code string) (string, error) {
	base, err := url.Parse(s.cfg.ResetRedirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid reset redirect configuration: %w", err)
	}
	if redirectURL != "" {
		if u, err := url.Parse(redirectURL); err == nil && u.Scheme == base.Scheme && u.Host == base.Host {
			base = u
		} else {
			log.Warn().Str("redirect_url", redirectURL).Msg("Ignoring foreign reset redirect URL")
		}
	}

	q := base.Query()
	q.Set("code", code)
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.Index(email, "@"):], ".")
}
