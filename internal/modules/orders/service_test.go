package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/modules/catalog"
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
		&catalog.Category{},
		&catalog.Product{},
		&catalog.Variation{},
		&Order{},
		&OrderItem{},
		&Delivery{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, inStock bool) catalog.Product {
	t.Helper()
	cat := catalog.Category{ID: uuid.NewString(), Name: "Groceries-" + uuid.NewString()[:8]}
	require.NoError(t, db.Create(&cat).Error)

	p := catalog.Product{
		ID:         uuid.NewString(),
		Name:       name,
		BasePrice:  price,
		CategoryID: cat.ID,
		Stock:      10,
		Unit:       "piece",
		InStock:    inStock,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestCreateWaivesDeliveryFeeAboveThreshold(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	p := seedProduct(t, db, "Rice 10kg", 12000, true)

	ord, err := svc.Create(context.Background(), CreateInput{
		UserID:   uuid.NewString(),
		Items:    []ItemInput{{ProductID: p.ID, Quantity: 1}},
		Delivery: DeliveryInfo{Address: "1 Marina Rd", City: "Lagos", State: "Lagos"},
	})
	require.NoError(t, err)
	require.Equal(t, float64(12000), ord.Subtotal)
	require.Equal(t, float64(0), ord.DeliveryFee)
	require.Equal(t, float64(12000), ord.FinalAmount)
	require.Equal(t, StatusPending, ord.Status)
	require.Equal(t, PaymentPending, ord.PaymentStatus)
}

func TestCreateChargesDeliveryFeeAtOrBelowThreshold(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	p := seedProduct(t, db, "Beans 2kg", 5000, true)

	ord, err := svc.Create(context.Background(), CreateInput{
		UserID:   uuid.NewString(),
		Items:    []ItemInput{{ProductID: p.ID, Quantity: 1}},
		Delivery: DeliveryInfo{Address: "1 Marina Rd"},
	})
	require.NoError(t, err)
	require.Equal(t, float64(5000), ord.Subtotal)
	require.Equal(t, DeliveryFee, ord.DeliveryFee)
	require.Equal(t, float64(6500), ord.FinalAmount)

	// exactly at the threshold still pays the fee
	p2 := seedProduct(t, db, "Oil 5L", 10000, true)
	ord2, err := svc.Create(context.Background(), CreateInput{
		UserID:   uuid.NewString(),
		Items:    []ItemInput{{ProductID: p2.ID, Quantity: 1}},
		Delivery: DeliveryInfo{Address: "2 Marina Rd"},
	})
	require.NoError(t, err)
	require.Equal(t, DeliveryFee, ord2.DeliveryFee)
	require.Equal(t, float64(11500), ord2.FinalAmount)
}

func TestCreateSnapshotsVariationPrice(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	p := seedProduct(t, db, "Yam", 2000, true)
	v := catalog.Variation{
		ID:        uuid.NewString(),
		ProductID: p.ID,
		Name:      "Large",
		Type:      "Size",
		Price:     3500,
	}
	require.NoError(t, db.Create(&v).Error)

	ord, err := svc.Create(context.Background(), CreateInput{
		UserID:   uuid.NewString(),
		Items:    []ItemInput{{ProductID: p.ID, VariationID: v.ID, Quantity: 2}},
		Delivery: DeliveryInfo{Address: "1 Marina Rd"},
	})
	require.NoError(t, err)
	require.Equal(t, float64(7000), ord.Subtotal)

	var item OrderItem
	require.NoError(t, db.First(&item, "order_id = ?", ord.ID).Error)
	require.Equal(t, "Yam (Large)", item.ProductName)
	require.Equal(t, float64(3500), item.UnitPrice)
	require.Equal(t, float64(7000), item.LineTotal)

	// later price changes must not touch the snapshot
	require.NoError(t, db.Model(&catalog.Variation{}).Where("id = ?", v.ID).Update("price", 9999).Error)
	var again OrderItem
	require.NoError(t, db.First(&again, "id = ?", item.ID).Error)
	require.Equal(t, float64(3500), again.UnitPrice)
}

func TestCreateRejectsEmptyAndUnavailable(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.Create(context.Background(), CreateInput{
		UserID:   uuid.NewString(),
		Delivery: DeliveryInfo{Address: "1 Marina Rd"},
	})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.Invalid, ae.Kind)

	p := seedProduct(t, db, "Garri", 1000, false)
	_, err = svc.Create(context.Background(), CreateInput{
		UserID:   uuid.NewString(),
		Items:    []ItemInput{{ProductID: p.ID, Quantity: 1}},
		Delivery: DeliveryInfo{Address: "1 Marina Rd"},
	})
	ae, ok = apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.Invalid, ae.Kind)

	_, err = svc.Create(context.Background(), CreateInput{
		UserID:   uuid.NewString(),
		Items:    []ItemInput{{ProductID: uuid.NewString(), Quantity: 1}},
		Delivery: DeliveryInfo{Address: "1 Marina Rd"},
	})
	ae, ok = apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.Invalid, ae.Kind)

	var orderCount int64
	require.NoError(t, db.Model(&Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)
}

func TestCreateWritesDeliveryRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	p := seedProduct(t, db, "Tomatoes", 800, true)

	ord, err := svc.Create(context.Background(), CreateInput{
		UserID: uuid.NewString(),
		Items:  []ItemInput{{ProductID: p.ID, Quantity: 3}},
		Delivery: DeliveryInfo{
			Address:       "14 Allen Ave",
			City:          "Ikeja",
			State:         "Lagos",
			ScheduledTime: "09:00-12:00",
		},
	})
	require.NoError(t, err)

	var d Delivery
	require.NoError(t, db.First(&d, "order_id = ?", ord.ID).Error)
	require.Equal(t, "14 Allen Ave", d.Address)
	require.Equal(t, "Ikeja", d.City)
	require.Equal(t, DeliveryScheduled, d.Status)
}
