package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/modules/notifications"
	"github.com/DonaldKnut/marketdotcom/internal/modules/orders"
	"github.com/DonaldKnut/marketdotcom/internal/modules/rewards"
	"github.com/DonaldKnut/marketdotcom/internal/modules/users"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

type fakeGateway struct {
	initResp   InitializeResponse
	initErr    error
	verifyResp VerifyResponse
	verifyErr  error
}

func (f *fakeGateway) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	return f.initResp, f.initErr
}

func (f *fakeGateway) Verify(ctx context.Context, reference string) (VerifyResponse, error) {
	return f.verifyResp, f.verifyErr
}

func (f *fakeGateway) VerifySignature(signature string, body []byte) bool { return true }

func (f *fakeGateway) GenerateReference() string { return "PSK-test-" + uuid.NewString()[:8] }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&users.User{},
		&orders.Order{},
		&Payment{},
		&rewards.Reward{},
		&notifications.Notification{},
	))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, gw Gateway) *Service {
	t.Helper()
	return NewService(db, gw, notifications.NewNotifier(db), nil, "http://localhost:8080", nil)
}

func seedUserAndOrder(t *testing.T, db *gorm.DB, finalAmount float64, reference string) (users.User, orders.Order) {
	t.Helper()
	u := users.User{
		ID:           uuid.NewString(),
		Name:         "Ada",
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Role:         users.RoleCustomer,
		ReferralCode: uuid.NewString()[:8],
	}
	require.NoError(t, db.Create(&u).Error)

	ord := orders.Order{
		ID:            uuid.NewString(),
		UserID:        u.ID,
		Status:        orders.StatusPending,
		PaymentStatus: orders.PaymentPending,
		Subtotal:      finalAmount,
		FinalAmount:   finalAmount,
	}
	if reference != "" {
		ord.TransactionID = &reference
	}
	require.NoError(t, db.Create(&ord).Error)
	return u, ord
}

func TestVerifySuccessConfirmsOrderAndAwardsPoints(t *testing.T) {
	db := newTestDB(t)
	gw := &fakeGateway{verifyResp: VerifyResponse{
		Status: "success",
		Amount: 4999,
		PaidAt: "2026-01-15T10:00:00Z",
		Raw:    json.RawMessage(`{"status":"success"}`),
	}}
	svc := newTestService(t, db, gw)

	u, _ := seedUserAndOrder(t, db, 4999, "PSK-abc")

	res, err := svc.Verify(context.Background(), u.ID, "PSK-abc")
	require.NoError(t, err)
	require.Equal(t, orders.PaymentCompleted, res.PaymentStatus)
	require.Equal(t, orders.StatusConfirmed, res.OrderStatus)

	var got users.User
	require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
	require.Equal(t, 49, got.Points)

	var p Payment
	require.NoError(t, db.First(&p, "transaction_id = ?", "PSK-abc").Error)
	require.Equal(t, orders.PaymentCompleted, p.Status)
	require.Equal(t, float64(4999), p.Amount)

	var rw rewards.Reward
	require.NoError(t, db.First(&rw, "user_id = ?", u.ID).Error)
	require.Equal(t, 49, rw.Points)
	require.Equal(t, rewards.TypePurchase, rw.Type)

	var n notifications.Notification
	require.NoError(t, db.First(&n, "user_id = ?", u.ID).Error)
	require.Equal(t, "Payment Successful", n.Title)
}

func TestVerifyFailureCancelsOrderWithoutPoints(t *testing.T) {
	db := newTestDB(t)
	gw := &fakeGateway{verifyResp: VerifyResponse{
		Status: "failed",
		Amount: 6500,
		Raw:    json.RawMessage(`{"status":"failed"}`),
	}}
	svc := newTestService(t, db, gw)

	u, ord := seedUserAndOrder(t, db, 6500, "PSK-fail")

	res, err := svc.Verify(context.Background(), u.ID, "PSK-fail")
	require.NoError(t, err)
	require.Equal(t, orders.PaymentFailed, res.PaymentStatus)
	require.Equal(t, orders.StatusCancelled, res.OrderStatus)

	var got users.User
	require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
	require.Equal(t, 0, got.Points)

	var rewardCount int64
	require.NoError(t, db.Model(&rewards.Reward{}).Where("user_id = ?", u.ID).Count(&rewardCount).Error)
	require.Zero(t, rewardCount)

	var gotOrd orders.Order
	require.NoError(t, db.First(&gotOrd, "id = ?", ord.ID).Error)
	require.Equal(t, orders.StatusCancelled, gotOrd.Status)
}

func TestDuplicateTriggersApplyOnce(t *testing.T) {
	db := newTestDB(t)
	gw := &fakeGateway{verifyResp: VerifyResponse{
		Status: "success",
		Amount: 12000,
		Raw:    json.RawMessage(`{"status":"success"}`),
	}}
	svc := newTestService(t, db, gw)

	u, _ := seedUserAndOrder(t, db, 12000, "PSK-dup")

	// webhook lands first
	body := []byte(`{"event":"charge.success","data":{"reference":"PSK-dup","amount":1200000,"status":"success"}}`)
	ev, err := ParseWebhook(body)
	require.NoError(t, err)
	require.NoError(t, svc.HandleWebhook(context.Background(), ev, body))

	// then the client-side verify races in, and the webhook retries too
	_, err = svc.Verify(context.Background(), u.ID, "PSK-dup")
	require.NoError(t, err)
	require.NoError(t, svc.HandleWebhook(context.Background(), ev, body))

	var got users.User
	require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
	require.Equal(t, 120, got.Points)

	var paymentCount int64
	require.NoError(t, db.Model(&Payment{}).Where("transaction_id = ?", "PSK-dup").Count(&paymentCount).Error)
	require.Equal(t, int64(1), paymentCount)

	var rewardCount int64
	require.NoError(t, db.Model(&rewards.Reward{}).Where("user_id = ?", u.ID).Count(&rewardCount).Error)
	require.Equal(t, int64(1), rewardCount)
}

func TestVerifyReportsSettledStateAfterLosingRace(t *testing.T) {
	db := newTestDB(t)
	gw := &fakeGateway{verifyResp: VerifyResponse{
		Status: "success",
		Amount: 5000,
		Raw:    json.RawMessage(`{"status":"success"}`),
	}}
	svc := newTestService(t, db, gw)

	u, _ := seedUserAndOrder(t, db, 5000, "PSK-race")

	body := []byte(`{"event":"charge.success","data":{"reference":"PSK-race","amount":500000,"status":"success"}}`)
	ev, err := ParseWebhook(body)
	require.NoError(t, err)
	require.NoError(t, svc.HandleWebhook(context.Background(), ev, body))

	res, err := svc.Verify(context.Background(), u.ID, "PSK-race")
	require.NoError(t, err)
	require.Equal(t, orders.PaymentCompleted, res.PaymentStatus)
	require.Equal(t, orders.StatusConfirmed, res.OrderStatus)
}

func TestWebhookUnknownReferenceIsAckedWithoutWrites(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &fakeGateway{})

	body := []byte(`{"event":"charge.success","data":{"reference":"PSK-ghost","amount":100000,"status":"success"}}`)
	ev, err := ParseWebhook(body)
	require.NoError(t, err)
	require.NoError(t, svc.HandleWebhook(context.Background(), ev, body))

	var paymentCount int64
	require.NoError(t, db.Model(&Payment{}).Count(&paymentCount).Error)
	require.Zero(t, paymentCount)
}

func TestWebhookUnknownEventIsIgnored(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &fakeGateway{})

	_, ord := seedUserAndOrder(t, db, 3000, "PSK-sub")

	body := []byte(`{"event":"subscription.create","data":{"reference":"PSK-sub"}}`)
	ev, err := ParseWebhook(body)
	require.NoError(t, err)
	require.NoError(t, svc.HandleWebhook(context.Background(), ev, body))

	var gotOrd orders.Order
	require.NoError(t, db.First(&gotOrd, "id = ?", ord.ID).Error)
	require.Equal(t, orders.PaymentPending, gotOrd.PaymentStatus)
}

func TestPointsFloorBoundaries(t *testing.T) {
	cases := []struct {
		amount float64
		points int
	}{
		{99, 0},
		{100, 1},
		{4999, 49},
		{10000, 100},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("amount_%.0f", tc.amount), func(t *testing.T) {
			db := newTestDB(t)
			gw := &fakeGateway{verifyResp: VerifyResponse{
				Status: "success",
				Amount: tc.amount,
				Raw:    json.RawMessage(`{}`),
			}}
			svc := newTestService(t, db, gw)

			ref := fmt.Sprintf("PSK-pts-%.0f", tc.amount)
			u, _ := seedUserAndOrder(t, db, tc.amount, ref)

			_, err := svc.Verify(context.Background(), u.ID, ref)
			require.NoError(t, err)

			var got users.User
			require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
			require.Equal(t, tc.points, got.Points)

			var rewardCount int64
			require.NoError(t, db.Model(&rewards.Reward{}).Where("user_id = ?", u.ID).Count(&rewardCount).Error)
			if tc.points == 0 {
				require.Zero(t, rewardCount)
			} else {
				require.Equal(t, int64(1), rewardCount)
			}
		})
	}
}

func TestInitializeRequiresPendingOrder(t *testing.T) {
	db := newTestDB(t)
	gw := &fakeGateway{initResp: InitializeResponse{AuthorizationURL: "https://pay.example/abc", AccessCode: "ac_1"}}
	svc := newTestService(t, db, gw)

	u, ord := seedUserAndOrder(t, db, 2000, "")

	res, err := svc.Initialize(context.Background(), u.ID, InitializeInput{OrderID: ord.ID, Amount: 2000})
	require.NoError(t, err)
	require.NotEmpty(t, res.Reference)
	require.Equal(t, "https://pay.example/abc", res.AuthorizationURL)

	var gotOrd orders.Order
	require.NoError(t, db.First(&gotOrd, "id = ?", ord.ID).Error)
	require.NotNil(t, gotOrd.TransactionID)
	require.Equal(t, res.Reference, *gotOrd.TransactionID)

	// already-paid order cannot be re-initialized
	require.NoError(t, db.Model(&orders.Order{}).Where("id = ?", ord.ID).
		Update("payment_status", orders.PaymentCompleted).Error)
	_, err = svc.Initialize(context.Background(), u.ID, InitializeInput{OrderID: ord.ID, Amount: 2000})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.NotFound, ae.Kind)
}

func TestVerifyGatewayFailureLeavesOrderUntouched(t *testing.T) {
	db := newTestDB(t)
	gw := &fakeGateway{verifyErr: &GatewayError{Op: "verify", Status: 502, Msg: "upstream down"}}
	svc := newTestService(t, db, gw)

	u, ord := seedUserAndOrder(t, db, 2000, "PSK-down")

	_, err := svc.Verify(context.Background(), u.ID, "PSK-down")
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.Gateway, ae.Kind)

	var gotOrd orders.Order
	require.NoError(t, db.First(&gotOrd, "id = ?", ord.ID).Error)
	require.Equal(t, orders.PaymentPending, gotOrd.PaymentStatus)
}
