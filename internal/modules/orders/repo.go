package orders

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

type ListParams struct {
	UserID string // empty means all users (admin)
	Status string // optional filter
}

func (r *Repo) List(ctx context.Context, in ListParams) ([]Order, error) {
	q := r.db.WithContext(ctx).Model(&Order{})
	if in.UserID != "" {
		q = q.Where("user_id = ?", in.UserID)
	}
	if status := strings.TrimSpace(in.Status); status != "" {
		q = q.Where("status = ?", status)
	}

	var out []Order
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetWithItems(ctx context.Context, id string) (Order, []OrderItem, *Delivery, error) {
	var o Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Order{}, nil, nil, apperr.NotFoundErr("Order not found.")
		}
		return Order{}, nil, nil, err
	}

	var items []OrderItem
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&items, "order_id = ?", id).Error; err != nil {
		return Order{}, nil, nil, err
	}

	var d Delivery
	if err := r.db.WithContext(ctx).First(&d, "order_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return o, items, nil, nil
		}
		return Order{}, nil, nil, err
	}
	return o, items, &d, nil
}

// FindByReference looks an order up by its gateway transaction reference.
func (r *Repo) FindByReference(ctx context.Context, reference string) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "transaction_id = ?", reference).Error
	return o, err
}
