package orders

import "time"

// Order status lifecycle: PENDING -> CONFIRMED -> PROCESSING -> ON_DELIVERY
// -> DELIVERED, or PENDING -> CANCELLED. Payment status transitions
// PENDING -> COMPLETED|FAILED exactly once; reconciliation guards the
// transition with a conditional update.
const (
	StatusPending    = "PENDING"
	StatusConfirmed  = "CONFIRMED"
	StatusProcessing = "PROCESSING"
	StatusOnDelivery = "ON_DELIVERY"
	StatusDelivered  = "DELIVERED"
	StatusCancelled  = "CANCELLED"

	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

// Delivery fee policy: flat fee, waived above the free-delivery threshold.
const (
	DeliveryFee           = 1500.0
	FreeDeliveryThreshold = 10000.0
)

type Order struct {
	ID            string `gorm:"type:char(36);primaryKey"`
	UserID        string `gorm:"type:char(36);not null;index:ix_orders_user_id"`
	Status        string `gorm:"type:varchar(32);not null"`
	PaymentStatus string `gorm:"type:varchar(32);not null"`

	// TransactionID correlates the order with exactly one gateway reference.
	TransactionID *string `gorm:"type:varchar(64);uniqueIndex:ux_orders_transaction_id"`
	PaymentMethod *string `gorm:"type:varchar(32)"`

	Subtotal    float64 `gorm:"not null"`
	DeliveryFee float64 `gorm:"not null"`
	FinalAmount float64 `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// OrderItem carries a price snapshot taken at order time; rows are immutable
// after creation.
type OrderItem struct {
	ID          string  `gorm:"type:char(36);primaryKey"`
	OrderID     string  `gorm:"type:char(36);not null;index:ix_order_items_order_id"`
	ProductID   string  `gorm:"type:char(36);not null"`
	VariationID *string `gorm:"type:char(36)"`
	ProductName string  `gorm:"type:varchar(255);not null"`
	Quantity    int     `gorm:"not null"`
	UnitPrice   float64 `gorm:"not null"`
	LineTotal   float64 `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }

const (
	DeliveryScheduled = "SCHEDULED"
	DeliveryInTransit = "IN_TRANSIT"
	DeliveryDelivered = "DELIVERED"
)

type Delivery struct {
	ID            string `gorm:"type:char(36);primaryKey"`
	OrderID       string `gorm:"type:char(36);not null;uniqueIndex:ux_deliveries_order_id"`
	Address       string `gorm:"type:varchar(255);not null"`
	City          string `gorm:"type:varchar(100);not null"`
	State         string `gorm:"type:varchar(100);not null"`
	ScheduledDate *time.Time
	ScheduledTime string `gorm:"type:varchar(32)"`
	Status        string `gorm:"type:varchar(32);not null;default:SCHEDULED"`

	CreatedAt time.Time `gorm:"not null"`
}

func (Delivery) TableName() string { return "deliveries" }

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusOnDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}
