package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/modules/email"
	"github.com/DonaldKnut/marketdotcom/internal/modules/notifications"
	"github.com/DonaldKnut/marketdotcom/internal/modules/users"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

type AdminService struct {
	db       *gorm.DB
	notifier *notifications.Notifier
	emails   *email.Sender
	logger   *slog.Logger
}

func NewAdminService(db *gorm.DB, notifier *notifications.Notifier, emails *email.Sender, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{db: db, notifier: notifier, emails: emails, logger: logger}
}

type UpdateStatusInput struct {
	OrderID   string
	NewStatus string
	ActorID   string
	ActorRole string
}

// UpdateStatus writes the new order status with a customer notification in
// one transaction, then sends a status-update email best-effort.
func (s *AdminService) UpdateStatus(ctx context.Context, in UpdateStatusInput) (Order, error) {
	if in.ActorRole != users.RoleAdmin {
		return Order{}, apperr.ForbiddenErr("Admin role required.")
	}
	if in.OrderID == "" || in.NewStatus == "" {
		return Order{}, apperr.InvalidErr("Order ID and status are required.", nil)
	}
	if !ValidStatus(in.NewStatus) {
		return Order{}, apperr.InvalidErr("Unknown order status.", map[string]string{"status": "unknown"})
	}

	var ord Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ord, "id = ?", in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundErr("Order not found.")
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&Order{}).
			Where("id = ?", ord.ID).
			Updates(map[string]any{"status": in.NewStatus, "updated_at": now}).Error; err != nil {
			return err
		}
		ord.Status = in.NewStatus
		ord.UpdatedAt = now

		msg := fmt.Sprintf("Your order #%s status has been updated to %s", ord.ID, in.NewStatus)
		return s.notifier.Push(ctx, tx, ord.UserID, "Order Status Updated", msg, notifications.TypeOrder, &ord.ID)
	})
	if err != nil {
		return Order{}, err
	}

	s.sendStatusEmail(ctx, ord)
	return ord, nil
}

func (s *AdminService) sendStatusEmail(ctx context.Context, ord Order) {
	if s.emails == nil {
		return
	}

	var u users.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", ord.UserID).Error; err != nil {
		s.logger.Warn("status email skipped, user lookup failed", "order_id", ord.ID, "err", err)
		return
	}

	var details *email.DeliveryDetails
	var d Delivery
	if err := s.db.WithContext(ctx).First(&d, "order_id = ?", ord.ID).Error; err == nil {
		details = &email.DeliveryDetails{
			Time:    d.ScheduledTime,
			Address: d.Address + ", " + d.City + ", " + d.State,
		}
		if d.ScheduledDate != nil {
			details.Date = d.ScheduledDate.Format("Jan 02, 2006")
		}
	}

	s.emails.SendOrderStatusUpdate(ctx, u.Email, u.Name, ord.ID, ord.Status, details)
}
