package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/muhammedkisla/deryailetisim/internal/cache"
	"github.com/muhammedkisla/deryailetisim/internal/config"
	"github.com/muhammedkisla/deryailetisim/internal/middleware"
	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/pricing"
	"github.com/muhammedkisla/deryailetisim/internal/realtime"
	"github.com/muhammedkisla/deryailetisim/internal/realtime/realtimetest"
	"github.com/muhammedkisla/deryailetisim/internal/service"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
	"github.com/muhammedkisla/deryailetisim/internal/view"
	"github.com/muhammedkisla/deryailetisim/internal/worker"
)

// memPhones is an in-memory phones table that publishes its writes to the
// change stream the way the database trigger does.
type memPhones struct {
	mu        sync.Mutex
	rows      map[string]models.Phone
	stream    *realtimetest.Stream
	listCalls int
	existsErr error
}

func (m *memPhones) List(_ context.Context, filter models.PhoneFilter) ([]models.Phone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []models.Phone
	for _, p := range m.rows {
		if filter.Stock == nil || p.Stock == *filter.Stock {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPhones) GetByID(_ context.Context, id string) (*models.Phone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (m *memPhones) Insert(_ context.Context, p *models.Phone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.rows[p.ID] = *p
	m.stream.Publish(realtimetest.Insert(realtime.TablePhones, realtimetest.PhoneRow(*p)))
	return nil
}

func (m *memPhones) Update(_ context.Context, id string, patch models.PhonePatch) (*models.Phone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Model != nil {
		p.Model = *patch.Model
	}
	if patch.Colors != nil {
		p.Colors = patch.Colors
	}
	if patch.CashPrice != nil {
		p.CashPrice = *patch.CashPrice
	}
	if patch.SinglePaymentRate != nil {
		p.SinglePaymentRate = *patch.SinglePaymentRate
	}
	if patch.InstallmentRate != nil {
		p.InstallmentRate = *patch.InstallmentRate
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	p.UpdatedAt = time.Now()
	m.rows[id] = p
	m.stream.Publish(realtimetest.Update(realtime.TablePhones, realtimetest.PhoneRow(p)))
	return &p, nil
}

func (m *memPhones) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	m.stream.Publish(realtimetest.Delete(realtime.TablePhones, id))
	return true, nil
}

func (m *memPhones) Exists(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return len(m.rows) > 0, nil
}

func (m *memPhones) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

type memCampaigns struct {
	mu     sync.Mutex
	rows   map[string]models.InstallmentCampaign
	stream *realtimetest.Stream
}

func (m *memCampaigns) List(_ context.Context) ([]models.InstallmentCampaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.InstallmentCampaign, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCampaigns) Insert(_ context.Context, c *models.InstallmentCampaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	m.rows[c.ID] = *c
	m.stream.Publish(realtimetest.Insert(realtime.TableCampaigns, realtimetest.CampaignRow(*c)))
	return nil
}

func (m *memCampaigns) Update(_ context.Context, c *models.InstallmentCampaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[c.ID]
	if !ok {
		return sql.ErrNoRows
	}
	c.CreatedAt = old.CreatedAt
	m.rows[c.ID] = *c
	m.stream.Publish(realtimetest.Update(realtime.TableCampaigns, realtimetest.CampaignRow(*c)))
	return nil
}

func (m *memCampaigns) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	m.stream.Publish(realtimetest.Delete(realtime.TableCampaigns, id))
	return true, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[int]*models.AdminUser
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) GetByID(_ context.Context, id int) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) Create(_ context.Context, user *models.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = len(m.users) + 1
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id int, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].PasswordHash = hash
	return nil
}

func (m *memUsers) TouchLastLogin(context.Context, int) error { return nil }

type outbox struct {
	mu    sync.Mutex
	links []string
}

func (o *outbox) SendPasswordReset(_ context.Context, _, link string) error {
	o.mu.Lock()
	o.links = append(o.links, link)
	o.mu.Unlock()
	return nil
}

func (o *outbox) last() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.links) == 0 {
		return ""
	}
	return o.links[len(o.links)-1]
}

type fixture struct {
	router    *gin.Engine
	phones    *memPhones
	campaigns *memCampaigns
	stream    *realtimetest.Stream
	public    *view.LiveList[models.Phone]
	admin     *view.LiveList[models.Phone]
	campList  *view.LiveList[models.InstallmentCampaign]
	edits     *view.EditSessions
	outbox    *outbox
	health    map[string]HealthCheck
}

const (
	adminEmail    = "admin@deryailetisim.com"
	adminPassword = "secret1"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	stream := realtimetest.NewStream()
	hub := realtime.NewHub(64)
	go hub.Run(ctx, stream)

	f := &fixture{
		stream:    stream,
		phones:    &memPhones{rows: map[string]models.Phone{}, stream: stream},
		campaigns: &memCampaigns{rows: map[string]models.InstallmentCampaign{}, stream: stream},
		outbox:    &outbox{},
		health:    map[string]HealthCheck{"database": func(context.Context) error { return nil }},
	}

	calc, err := pricing.NewCalculator(pricing.Divisive)
	require.NoError(t, err)
	phoneSvc, err := service.NewPhoneService(f.phones, calc, "", "")
	require.NoError(t, err)
	prices := service.NewPriceListService(calc, config.ShopConfig{
		BrandPriority: []string{"APPLE", "SAMSUNG", "XIAOMI"},
		BankAccounts:  []config.BankAccount{{BankName: "Kuveyt Türk", IBAN: "TR25 0020 5000 0962 1365 2000 01"}},
	})

	opts := view.Options{FetchTimeout: time.Second}
	f.public = view.NewPublicPhones(hub, f.phones, opts)
	f.admin = view.NewAdminPhones(hub, f.phones, opts)
	f.campList = view.NewCampaigns(hub, f.campaigns, opts)
	f.edits = view.NewEditSessions(phoneSvc.EmptyForm)
	f.admin.OnRemove(f.edits.AbandonPhone)
	for _, l := range []interface {
		Start(context.Context) error
		Close()
	}{f.public, f.admin, f.campList} {
		require.NoError(t, l.Start(ctx))
		t.Cleanup(l.Close)
	}

	refresher := worker.NewRefreshWorker(time.Hour, stream.Resyncs(), f.public, f.admin, f.campList)
	go refresher.Start(ctx)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	users := &memUsers{users: map[int]*models.AdminUser{
		1: {ID: 1, Email: adminEmail, PasswordHash: string(hash), IsActive: true, EmailConfirmed: true},
	}}
	authSvc := service.NewAuthService(users, cache.NewAuthCache(cache.NewRedisClientFrom(rdb)), utils.NewJWTManager("test-secret"), f.outbox, config.AuthConfig{
		SessionTTL:       time.Hour,
		RecoveryTTL:      15 * time.Minute,
		ResetCodeTTL:     time.Hour,
		ResetCooldown:    30 * time.Minute,
		RedirectDelay:    3 * time.Second,
		ResetRedirectURL: "https://deryailetisim.com/auth/callback",
		LoginPath:        "/admin/login",
	})

	limiter := middleware.NewInvalidAuthRateLimiter(ctx, 100, time.Minute)
	f.router = gin.New()
	SetupRoutes(f.router, &Handlers{
		Health:    NewHealthHandler(f.health),
		Heartbeat: NewHeartbeatHandler(f.phones, "beat-secret"),
		PriceList: NewPriceListHandler(prices, f.public, f.campList, refresher, hub),
		Phone:     NewPhoneHandler(phoneSvc, prices, f.admin, f.edits, hub),
		Campaign:  NewCampaignHandler(service.NewCampaignService(f.campaigns), f.campList),
		Auth:      NewAuthHandler(authSvc, limiter),
	}, middleware.NewJWTMiddleware(authSvc, limiter))
	return f
}

type envelope struct {
	Success bool             `json:"success"`
	Code    int              `json:"code"`
	Data    json.RawMessage  `json:"data"`
	Error   *utils.ErrorInfo `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	w, env := f.do(t, http.MethodPost, "/v1/admin/auth/login", "", gin.H{"email": adminEmail, "password": adminPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session struct {
		Token string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	return session.Token
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func phoneBody(brand, model string, cash int64, stock bool) gin.H {
	return gin.H{
		"brand":     brand,
		"model":     model,
		"colors":    []string{"Siyah"},
		"cashPrice": cash,
		"stock":     stock,
	}
}

func mustRate(s string) decimal.Decimal { return decimal.RequireFromString(s) }
