package loyalty

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	"github.com/telaprint/telaprint-backend/pkg/logger"
)

func setupLoyaltyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS loyalty_accounts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  loyalty_points INTEGER NOT NULL DEFAULT 0,
  total_spent NUMERIC NOT NULL DEFAULT 0,
  tier TEXT NOT NULL DEFAULT 'bronze',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_loyalty_accounts_user ON loyalty_accounts (user_id);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func newLoyalty(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), logger.New(logger.Options{Level: zerolog.ErrorLevel}))
	require.NoError(t, err)
	return svc
}

func TestTierFor(t *testing.T) {
	require.Equal(t, enums.LoyaltyTierBronze, TierFor(decimal.NewFromInt(0)))
	require.Equal(t, enums.LoyaltyTierBronze, TierFor(decimal.NewFromInt(499)))
	require.Equal(t, enums.LoyaltyTierSilver, TierFor(decimal.NewFromInt(500)))
	require.Equal(t, enums.LoyaltyTierGold, TierFor(decimal.NewFromInt(2000)))
	require.Equal(t, enums.LoyaltyTierPlatinum, TierFor(decimal.NewFromInt(5000)))
}

func TestPointsFor(t *testing.T) {
	rate := decimal.NewFromInt(1)

	require.Equal(t, int64(80), PointsFor(decimal.RequireFromString("80.90"), rate, enums.LoyaltyTierBronze, false))
	require.Equal(t, int64(101), PointsFor(decimal.RequireFromString("80.90"), rate, enums.LoyaltyTierSilver, false))
	require.Equal(t, int64(121), PointsFor(decimal.RequireFromString("80.90"), rate, enums.LoyaltyTierGold, false))
	require.Equal(t, int64(161), PointsFor(decimal.RequireFromString("80.90"), rate, enums.LoyaltyTierPlatinum, false))
	// Voucher purchases double the award.
	require.Equal(t, int64(160), PointsFor(decimal.RequireFromString("80.00"), rate, enums.LoyaltyTierBronze, true))
}

func TestAwardCreatesAccountOnFirstOrder(t *testing.T) {
	conn := setupLoyaltyTestDB(t)
	svc := newLoyalty(t, conn)
	userID := uuid.New()

	result, err := svc.Award(context.Background(), conn, AwardInput{
		UserID:        userID,
		OrderTotal:    decimal.RequireFromString("120.50"),
		PointsPerEuro: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	require.Equal(t, int64(120), result.Points)
	require.Equal(t, enums.LoyaltyTierBronze.String(), result.Tier)

	account, err := svc.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, int64(120), account.LoyaltyPoints)
	require.True(t, account.TotalSpent.Equal(decimal.RequireFromString("120.50")))
}

func TestAwardUsesTierHeldBeforeTheOrder(t *testing.T) {
	conn := setupLoyaltyTestDB(t)
	svc := newLoyalty(t, conn)
	userID := uuid.New()

	account := models.LoyaltyAccount{
		ID:         uuid.New(),
		UserID:     userID,
		TotalSpent: decimal.NewFromInt(450),
		Tier:       enums.LoyaltyTierBronze,
	}
	require.NoError(t, conn.Create(&account).Error)

	// This order crosses the silver threshold, but the award itself is
	// still computed at the bronze multiplier.
	result, err := svc.Award(context.Background(), conn, AwardInput{
		UserID:        userID,
		OrderTotal:    decimal.NewFromInt(100),
		PointsPerEuro: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), result.Points)
	require.Equal(t, enums.LoyaltyTierSilver.String(), result.Tier)

	reloaded, err := svc.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, enums.LoyaltyTierSilver, reloaded.Tier)
}

func TestGetAccountDefaultsToBronze(t *testing.T) {
	conn := setupLoyaltyTestDB(t)
	svc := newLoyalty(t, conn)

	account, err := svc.GetAccount(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, enums.LoyaltyTierBronze, account.Tier)
	require.True(t, account.TotalSpent.IsZero())
}
