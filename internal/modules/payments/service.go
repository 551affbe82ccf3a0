package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DonaldKnut/marketdotcom/internal/modules/email"
	"github.com/DonaldKnut/marketdotcom/internal/modules/notifications"
	"github.com/DonaldKnut/marketdotcom/internal/modules/orders"
	"github.com/DonaldKnut/marketdotcom/internal/modules/rewards"
	"github.com/DonaldKnut/marketdotcom/internal/modules/users"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

// Points policy: 1 point per ₦100 of the order's final amount.
const pointsDivisor = 100

type Service struct {
	db       *gorm.DB
	gateway  Gateway
	notifier *notifications.Notifier
	emails   *email.Sender
	baseURL  string
	logger   *slog.Logger
}

func NewService(db *gorm.DB, gw Gateway, notifier *notifications.Notifier, emails *email.Sender, baseURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, gateway: gw, notifier: notifier, emails: emails, baseURL: baseURL, logger: logger}
}

type InitializeInput struct {
	OrderID       string
	Amount        float64
	PaymentMethod string
}

type InitializeResult struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// Initialize correlates a pending order with a fresh gateway reference and
// starts the remote transaction. A gateway failure means "payment not
// started"; the stored reference is simply replaced on the next attempt.
func (s *Service) Initialize(ctx context.Context, userID string, in InitializeInput) (InitializeResult, error) {
	if in.OrderID == "" || in.Amount <= 0 {
		return InitializeResult{}, apperr.InvalidErr("Order ID and a valid amount are required.", nil)
	}

	var ord orders.Order
	err := s.db.WithContext(ctx).
		First(&ord, "id = ? AND user_id = ? AND payment_status = ?", in.OrderID, userID, orders.PaymentPending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InitializeResult{}, apperr.NotFoundErr("Order not found or already paid.")
		}
		return InitializeResult{}, err
	}

	var u users.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return InitializeResult{}, err
	}

	reference := s.gateway.GenerateReference()
	method := in.PaymentMethod
	if method == "" {
		method = "paystack"
	}
	if err := s.db.WithContext(ctx).Model(&orders.Order{}).
		Where("id = ?", ord.ID).
		Updates(map[string]any{
			"transaction_id": reference,
			"payment_method": method,
			"updated_at":     time.Now(),
		}).Error; err != nil {
		return InitializeResult{}, err
	}

	resp, err := s.gateway.Initialize(ctx, InitializeRequest{
		Amount:      in.Amount,
		Email:       u.Email,
		Reference:   reference,
		CallbackURL: fmt.Sprintf("%s/checkout?reference=%s", s.baseURL, reference),
		Metadata: map[string]any{
			"order_id": ord.ID,
			"user_id":  userID,
		},
	})
	if err != nil {
		return InitializeResult{}, apperr.GatewayErr("Failed to initialize payment.", err)
	}

	return InitializeResult{
		Reference:        reference,
		AuthorizationURL: resp.AuthorizationURL,
		AccessCode:       resp.AccessCode,
	}, nil
}

type VerifyResult struct {
	PaymentStatus string
	OrderStatus   string
	Reference     string
	Amount        float64
	GatewayStatus string
	PaidAt        string
}

// Verify is the client-initiated reconciliation trigger: the user returns
// from the gateway redirect and asks us to settle the order. It races the
// webhook for the same reference; apply makes the outcome idempotent.
func (s *Service) Verify(ctx context.Context, userID, reference string) (VerifyResult, error) {
	if reference == "" {
		return VerifyResult{}, apperr.InvalidErr("Payment reference is required.", nil)
	}

	resp, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return VerifyResult{}, apperr.GatewayErr("Failed to verify payment.", err)
	}

	var ord orders.Order
	err = s.db.WithContext(ctx).
		First(&ord, "transaction_id = ? AND user_id = ?", reference, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VerifyResult{}, apperr.NotFoundErr("Order not found.")
		}
		return VerifyResult{}, err
	}

	success := resp.Status == "success"
	amount := resp.Amount
	if amount == 0 {
		amount = ord.FinalAmount
	}
	if err := s.apply(ctx, ord, success, amount, datatypes.JSON(resp.Raw)); err != nil {
		return VerifyResult{}, err
	}

	// Reload so a verify that lost the race still reports the settled state.
	if err := s.db.WithContext(ctx).First(&ord, "id = ?", ord.ID).Error; err != nil {
		return VerifyResult{}, err
	}

	return VerifyResult{
		PaymentStatus: ord.PaymentStatus,
		OrderStatus:   ord.Status,
		Reference:     reference,
		Amount:        amount,
		GatewayStatus: resp.Status,
		PaidAt:        resp.PaidAt,
	}, nil
}

// apply performs the reconciliation mutation exactly once per order. All
// writes share one transaction, and the order row's PENDING->terminal
// payment-status transition is the idempotency guard: when the conditional
// update matches zero rows another trigger already settled the order and
// the whole apply is a no-op.
func (s *Service) apply(ctx context.Context, ord orders.Order, success bool, amount float64, raw datatypes.JSON) error {
	paymentStatus := orders.PaymentFailed
	orderStatus := orders.StatusCancelled
	if success {
		paymentStatus = orders.PaymentCompleted
		orderStatus = orders.StatusConfirmed
	}
	if ord.TransactionID == nil {
		return apperr.Wrap(errors.New("order has no transaction reference"))
	}
	reference := *ord.TransactionID

	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		res := tx.Model(&orders.Order{}).
			Where("id = ? AND payment_status = ?", ord.ID, orders.PaymentPending).
			Updates(map[string]any{
				"payment_status": paymentStatus,
				"status":         orderStatus,
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// already reconciled by the other trigger
			return nil
		}
		applied = true

		p := Payment{
			ID:            uuid.NewString(),
			OrderID:       ord.ID,
			UserID:        ord.UserID,
			Amount:        amount,
			Currency:      CurrencyNGN,
			Method:        MethodPaystack,
			Status:        paymentStatus,
			TransactionID: reference,
			GatewayResp:   raw,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "gateway_resp", "updated_at"}),
		}).Create(&p).Error; err != nil {
			return err
		}

		if success {
			points := int(ord.FinalAmount) / pointsDivisor
			if points > 0 {
				if err := tx.Model(&users.User{}).
					Where("id = ?", ord.UserID).
					Update("points", gorm.Expr("points + ?", points)).Error; err != nil {
					return err
				}
				reward := rewards.Reward{
					ID:          uuid.NewString(),
					UserID:      ord.UserID,
					OrderID:     &ord.ID,
					Points:      points,
					Type:        rewards.TypePurchase,
					Description: fmt.Sprintf("Points earned from payment for order #%s", ord.ID),
					CreatedAt:   now,
				}
				if err := tx.Create(&reward).Error; err != nil {
					return err
				}
			}
		}

		title := "Payment Failed"
		msg := fmt.Sprintf("Your payment for order #%s could not be processed. Please try again or contact support.", ord.ID)
		if success {
			title = "Payment Successful"
			msg = fmt.Sprintf("Your payment of ₦%.2f for order #%s has been processed successfully.", amount, ord.ID)
		}
		return s.notifier.Push(ctx, tx, ord.UserID, title, msg, notifications.TypePayment, &ord.ID)
	})
	if err != nil {
		return err
	}

	if applied {
		s.sendResultEmail(ctx, ord, amount, success)
	}
	return nil
}

func (s *Service) sendResultEmail(ctx context.Context, ord orders.Order, amount float64, success bool) {
	if s.emails == nil {
		return
	}
	var u users.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", ord.UserID).Error; err != nil {
		s.logger.Warn("payment email skipped, user lookup failed", "order_id", ord.ID, "err", err)
		return
	}
	s.emails.SendPaymentResult(ctx, u.Email, u.Name, ord.ID, amount, success)
}
