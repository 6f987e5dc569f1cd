//go:build integration

package repository

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/muhammedkisla/deryailetisim/internal/database"
	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/realtime"
)

var (
	testDB  *sqlx.DB
	testDSN string
)

func setupTestDB(ctx context.Context) (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	const (
		dbName = "deryailetisim"
		dbUser = "user"
		dbPwd  = "password"
	)

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	testDSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container.Terminate, err
	}
	testDB, err = database.ConnectDSN(testDSN)
	if err != nil {
		return container.Terminate, err
	}
	if err := database.MigrateUp(testDB.DB); err != nil {
		return container.Terminate, err
	}
	return container.Terminate, nil
}

func TestMain(m *testing.M) {
	ctx := context.Background()
	teardown, err := setupTestDB(ctx)
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	code := m.Run()

	_ = testDB.Close()
	if teardown != nil {
		_ = teardown(ctx)
	}
	os.Exit(code)
}

func resetTables(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(`DELETE FROM phones; DELETE FROM installment_campaigns; DELETE FROM admin_users`)
	require.NoError(t, err)
}

func newPhone(model string, cash int64, stock bool) *models.Phone {
	return &models.Phone{
		Brand:             "APPLE",
		Model:             model,
		Colors:            []string{"Siyah", "Beyaz"},
		CashPrice:         cash,
		SinglePaymentRate: decimal.RequireFromString("0.97"),
		InstallmentRate:   decimal.RequireFromString("0.93"),
		Stock:             stock,
	}
}

func TestPhoneRepository_CRUD(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewPhoneRepository(testDB)

	empty, err := repo.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, empty)

	cheap, pricey, hidden := newPhone("SE", 20000, true), newPhone("Pro", 90000, true), newPhone("Mini", 40000, false)
	for _, p := range []*models.Phone{cheap, pricey, hidden} {
		require.NoError(t, repo.Insert(ctx, p))
		require.NotEmpty(t, p.ID)
	}

	inStock := true
	listed, err := repo.List(ctx, models.PhoneFilter{Stock: &inStock})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Pro", listed[0].Model)
	assert.Equal(t, "SE", listed[1].Model)

	all, err := repo.List(ctx, models.PhoneFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	newCash := int64(25000)
	stock := false
	updated, err := repo.Update(ctx, cheap.ID, models.PhonePatch{CashPrice: &newCash, Stock: &stock, Colors: []string{"Mavi"}})
	require.NoError(t, err)
	assert.EqualValues(t, 25000, updated.CashPrice)
	assert.False(t, updated.Stock)
	assert.Equal(t, []string{"Mavi"}, []string(updated.Colors))
	assert.True(t, updated.SinglePaymentRate.Equal(decimal.RequireFromString("0.97")))

	deleted, err := repo.Delete(ctx, pricey.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, pricey.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.GetByID(ctx, pricey.ID)
	assert.True(t, IsNotFound(err))

	exists, err := repo.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPhoneRepository_RejectsEmptyColors(t *testing.T) {
	resetTables(t)
	p := newPhone("Broken", 1000, true)
	p.Colors = nil
	assert.Error(t, NewPhoneRepository(testDB).Insert(context.Background(), p))
}

func TestPhonesSchema_CashPriceIsWholeUnits(t *testing.T) {
	var dataType string
	err := testDB.Get(&dataType, `SELECT data_type FROM information_schema.columns WHERE table_name = 'phones' AND column_name = 'cash_price'`)
	require.NoError(t, err)
	assert.Equal(t, "bigint", dataType)

	resetTables(t)
	ctx := context.Background()
	repo := NewPhoneRepository(testDB)
	p := newPhone("Max", 9_999_999_999, true)
	require.NoError(t, repo.Insert(ctx, p))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 9_999_999_999, got.CashPrice)
}

func TestCampaignRepository_CRUD(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewCampaignRepository(testDB)

	first := &models.InstallmentCampaign{BankName: "Garanti", InstallmentDescription: "9 taksit"}
	second := &models.InstallmentCampaign{BankName: "Akbank", InstallmentDescription: "6 taksit"}
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	first.InstallmentDescription = "12 taksit"
	require.NoError(t, repo.Update(ctx, first))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "12 taksit", list[0].InstallmentDescription)

	ok, err := repo.Delete(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAdminUserRepository(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewAdminUserRepository(testDB)

	user := &models.AdminUser{Email: "Admin@DeryaIletisim.com", PasswordHash: "hash", Name: "Derya", IsActive: true, EmailConfirmed: true}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByEmail(ctx, "admin@deryailetisim.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Nil(t, got.LastLoginAt)

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new-hash"))
	require.NoError(t, repo.TouchLastLogin(ctx, user.ID))

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.NotNil(t, got.LastLoginAt)
}

func TestChangeTriggersReachTheStream(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	stream, err := realtime.NewPGStream(testDSN, 100*time.Millisecond, time.Second, realtime.TablePhones)
	require.NoError(t, err)
	defer stream.Close()
	// The listener connects in the background.
	time.Sleep(500 * time.Millisecond)

	repo := NewPhoneRepository(testDB)
	p := newPhone("Stream", 55000, true)
	require.NoError(t, repo.Insert(ctx, p))
	_, err = repo.Delete(ctx, p.ID)
	require.NoError(t, err)

	next := func() realtime.RawChange {
		select {
		case c := <-stream.Changes():
			return c
		case <-time.After(5 * time.Second):
			t.Fatal("no notification received")
			return realtime.RawChange{}
		}
	}

	inserted, err := realtime.MapPhone(next())
	require.NoError(t, err)
	assert.Equal(t, realtime.KindInsert, inserted.Kind)
	assert.EqualValues(t, 55000, inserted.Item.CashPrice)
	assert.Equal(t, []string{"Siyah", "Beyaz"}, []string(inserted.Item.Colors))

	deleted, err := realtime.MapPhone(next())
	require.NoError(t, err)
	assert.Equal(t, realtime.KindDelete, deleted.Kind)
	assert.Equal(t, p.ID, deleted.ID)
}
