package view

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/muhammedkisla/deryailetisim/internal/models"
)

var ErrEditSessionAbandoned = errors.New("EDIT_SESSION_ABANDONED")

// PhoneForm is the admin edit form. Prices and rates are kept as the text
// the form shows ("65.000", "0.97").
type PhoneForm struct {
	Brand               string   `json:"brand"`
	Model               string   `json:"model"`
	Colors              []string `json:"colors"`
	CashPrice           string   `json:"cashPrice"`
	SinglePaymentRate   string   `json:"singlePaymentRate"`
	InstallmentRate     string   `json:"installmentRate"`
	InstallmentCampaign string   `json:"installmentCampaign"`
	ImageURL            string   `json:"imageUrl"`
	Stock               bool     `json:"stock"`
}

// EditSession is one admin's open edit form.
type EditSession struct {
	ID       string    `json:"id"`
	UserID   int       `json:"userId"`
	PhoneID  string    `json:"phoneId"`
	Form     PhoneForm `json:"form"`
	OpenedAt time.Time `json:"openedAt"`
}

// EditSessions tracks at most one open edit form per admin user.
type EditSessions struct {
	mu        sync.Mutex
	byUser    map[int]*EditSession
	emptyForm func() PhoneForm
}

// NewEditSessions creates the registry. emptyForm produces the reset form.
func NewEditSessions(emptyForm func() PhoneForm) *EditSessions {
	return &EditSessions{
		byUser:    make(map[int]*EditSession),
		emptyForm: emptyForm,
	}
}

// Open starts editing phone for userID, replacing any session the user had.
func (s *EditSessions) Open(userID int, phone models.Phone, form PhoneForm) EditSession {
	sess := &EditSession{
		ID:       uuid.NewString(),
		UserID:   userID,
		PhoneID:  phone.ID,
		Form:     form,
		OpenedAt: time.Now(),
	}

	s.mu.Lock()
	s.byUser[userID] = sess
	s.mu.Unlock()
	return *sess
}

// Current returns the user's open session.
func (s *EditSessions) Current(userID int) (EditSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byUser[userID]
	if !ok {
		return EditSession{}, false
	}
	return *sess, true
}

// Reset closes the user's session.
func (s *EditSessions) Reset(userID int) {
	s.mu.Lock()
	delete(s.byUser, userID)
	s.mu.Unlock()
}

// EmptyForm returns the form shown when nothing is being edited.
func (s *EditSessions) EmptyForm() PhoneForm {
	return s.emptyForm()
}

// AbandonPhone drops every session editing phoneID. It is registered as the
// admin list's OnRemove hook.
func (s *EditSessions) AbandonPhone(phoneID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, sess := range s.byUser {
		if sess.PhoneID != phoneID {
			continue
		}
		delete(s.byUser, userID)
		log.Info().Int("user_id", userID).Str("phone_id", phoneID).Str("session_id", sess.ID).Msg("Edit session abandoned, phone was deleted")
	}
}

// Check verifies that sessionID is still the user's open session for
// phoneID.
func (s *EditSessions) Check(userID int, sessionID, phoneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byUser[userID]
	if !ok || sess.ID != sessionID || sess.PhoneID != phoneID {
		return ErrEditSessionAbandoned
	}
	return nil
}
