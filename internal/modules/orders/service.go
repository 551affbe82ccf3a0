package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/modules/catalog"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

type ItemInput struct {
	ProductID   string
	VariationID string // optional
	Quantity    int
}

type DeliveryInfo struct {
	Address       string
	City          string
	State         string
	ScheduledDate *time.Time
	ScheduledTime string
}

type CreateInput struct {
	UserID        string
	Items         []ItemInput
	Delivery      DeliveryInfo
	PaymentMethod string
}

// Create snapshots current prices into order_items, computes the totals and
// writes the order, its items and the delivery row in one transaction. The
// order starts PENDING/PENDING; reconciliation moves it from there.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	if len(in.Items) == 0 {
		return Order{}, apperr.InvalidErr("Order must contain at least one item.", nil)
	}
	if strings.TrimSpace(in.Delivery.Address) == "" {
		return Order{}, apperr.InvalidErr("Delivery address is required.", map[string]string{"address": "required"})
	}

	var created Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		orderID := uuid.NewString()

		var subtotal float64
		items := make([]OrderItem, 0, len(in.Items))

		for _, it := range in.Items {
			qty := it.Quantity
			if qty < 1 {
				qty = 1
			}

			var p catalog.Product
			if err := tx.First(&p, "id = ?", it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.InvalidErr("One or more products no longer exist.", nil)
				}
				return err
			}
			if !p.InStock {
				return apperr.InvalidErr(fmt.Sprintf("%s is out of stock.", p.Name), nil)
			}

			price := p.BasePrice
			name := p.Name
			var variationID *string
			if it.VariationID != "" {
				var v catalog.Variation
				if err := tx.First(&v, "id = ? AND product_id = ?", it.VariationID, p.ID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return apperr.InvalidErr("One or more product variations no longer exist.", nil)
					}
					return err
				}
				price = v.Price
				name = p.Name + " (" + v.Name + ")"
				variationID = &v.ID
			}

			line := price * float64(qty)
			subtotal += line
			items = append(items, OrderItem{
				ID:          uuid.NewString(),
				OrderID:     orderID,
				ProductID:   p.ID,
				VariationID: variationID,
				ProductName: name,
				Quantity:    qty,
				UnitPrice:   price,
				LineTotal:   line,
				CreatedAt:   now,
			})
		}

		fee := DeliveryFee
		if subtotal > FreeDeliveryThreshold {
			fee = 0
		}

		var method *string
		if m := strings.TrimSpace(in.PaymentMethod); m != "" {
			method = &m
		}

		created = Order{
			ID:            orderID,
			UserID:        in.UserID,
			Status:        StatusPending,
			PaymentStatus: PaymentPending,
			PaymentMethod: method,
			Subtotal:      subtotal,
			DeliveryFee:   fee,
			FinalAmount:   subtotal + fee,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		for i := range items {
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}

		d := Delivery{
			ID:            uuid.NewString(),
			OrderID:       orderID,
			Address:       strings.TrimSpace(in.Delivery.Address),
			City:          strings.TrimSpace(in.Delivery.City),
			State:         strings.TrimSpace(in.Delivery.State),
			ScheduledDate: in.Delivery.ScheduledDate,
			ScheduledTime: strings.TrimSpace(in.Delivery.ScheduledTime),
			Status:        DeliveryScheduled,
			CreatedAt:     now,
		}
		return tx.Create(&d).Error
	})
	if err != nil {
		return Order{}, err
	}
	return created, nil
}
