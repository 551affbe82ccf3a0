package wallet

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/modules/notifications"
	"github.com/DonaldKnut/marketdotcom/internal/modules/rewards"
	"github.com/DonaldKnut/marketdotcom/internal/modules/users"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&users.User{},
		&WalletTransaction{},
		&rewards.Reward{},
		&notifications.Notification{},
	))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	return NewService(db, notifications.NewNotifier(db), nil)
}

func seedUser(t *testing.T, db *gorm.DB, balance float64, points int) users.User {
	t.Helper()
	u := users.User{
		ID:            uuid.NewString(),
		Name:          "Ada",
		Email:         uuid.NewString()[:8] + "@example.com",
		PasswordHash:  "x",
		Role:          users.RoleCustomer,
		WalletBalance: balance,
		Points:        points,
		ReferralCode:  uuid.NewString()[:8],
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestFundCreditsBalanceAndLedger(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	u := seedUser(t, db, 500, 0)

	res, err := svc.Fund(context.Background(), u.ID, 2500, "card")
	require.NoError(t, err)
	require.Equal(t, float64(3000), res.NewBalance)
	require.NotEmpty(t, res.Reference)

	var got users.User
	require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
	require.Equal(t, float64(3000), got.WalletBalance)

	var entry WalletTransaction
	require.NoError(t, db.First(&entry, "reference = ?", res.Reference).Error)
	require.Equal(t, TypeCredit, entry.Type)
	require.Equal(t, float64(2500), entry.Amount)
	require.Equal(t, StatusCompleted, entry.Status)

	var n notifications.Notification
	require.NoError(t, db.First(&n, "user_id = ?", u.ID).Error)
	require.Equal(t, "Wallet Funded Successfully", n.Title)
}

func TestFundBelowMinimumLeavesBalanceUnchanged(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	u := seedUser(t, db, 500, 0)

	_, err := svc.Fund(context.Background(), u.ID, 99, "card")
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.Invalid, ae.Kind)

	var got users.User
	require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
	require.Equal(t, float64(500), got.WalletBalance)

	var ledgerCount int64
	require.NoError(t, db.Model(&WalletTransaction{}).Count(&ledgerCount).Error)
	require.Zero(t, ledgerCount)
}

func TestRedeemPointsConvertsToWalletCredit(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	u := seedUser(t, db, 0, 2500)

	res, err := svc.RedeemPoints(context.Background(), u.ID, 2500)
	require.NoError(t, err)
	require.Equal(t, 2500, res.PointsRedeemed)
	require.Equal(t, float64(250), res.AmountCredited)
	require.Equal(t, float64(250), res.NewBalance)
	require.Equal(t, 0, res.PointsLeft)

	var rw rewards.Reward
	require.NoError(t, db.First(&rw, "user_id = ?", u.ID).Error)
	require.Equal(t, -2500, rw.Points)
	require.Equal(t, rewards.TypeRedemption, rw.Type)

	var entry WalletTransaction
	require.NoError(t, db.First(&entry, "user_id = ?", u.ID).Error)
	require.Equal(t, float64(250), entry.Amount)
}

func TestRedeemRoundsDownToWholeNaira(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	u := seedUser(t, db, 0, 2000)

	res, err := svc.RedeemPoints(context.Background(), u.ID, 1005)
	require.NoError(t, err)
	require.Equal(t, 1000, res.PointsRedeemed)
	require.Equal(t, float64(100), res.AmountCredited)
	require.Equal(t, 1000, res.PointsLeft)
}

func TestRedeemRejectsBelowMinimumAndInsufficient(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	u := seedUser(t, db, 0, 500)

	_, err := svc.RedeemPoints(context.Background(), u.ID, 999)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.Invalid, ae.Kind)

	// enough to pass the minimum but more than the user holds
	_, err = svc.RedeemPoints(context.Background(), u.ID, 1000)
	ae, ok = apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.Invalid, ae.Kind)

	var got users.User
	require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
	require.Equal(t, 500, got.Points)
	require.Equal(t, float64(0), got.WalletBalance)
}

func TestOverviewCountsReferrals(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	u := seedUser(t, db, 1200, 300)

	for i := 0; i < 3; i++ {
		ref := seedUser(t, db, 0, 0)
		require.NoError(t, db.Model(&users.User{}).Where("id = ?", ref.ID).
			Update("referred_by_id", u.ID).Error)
	}

	ov, err := svc.Overview(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, float64(1200), ov.WalletBalance)
	require.Equal(t, 300, ov.Points)
	require.Equal(t, u.ReferralCode, ov.ReferralCode)
	require.Equal(t, int64(3), ov.ReferralCount)
}
