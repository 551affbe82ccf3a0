package payments

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MethodPaystack = "PAYSTACK"
	CurrencyNGN    = "NGN"
)

// Payment holds one logical record per gateway transaction reference; the
// unique index on TransactionID makes the reconciliation upsert idempotent.
// The raw gateway response is kept for audit.
type Payment struct {
	ID            string         `gorm:"type:char(36);primaryKey"`
	OrderID       string         `gorm:"type:char(36);not null;index:ix_payments_order_id"`
	UserID        string         `gorm:"type:char(36);not null;index:ix_payments_user_id"`
	Amount        float64        `gorm:"not null"`
	Currency      string         `gorm:"type:char(3);not null"`
	Method        string         `gorm:"type:varchar(32);not null"`
	Status        string         `gorm:"type:varchar(32);not null"`
	TransactionID string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_payments_transaction_id"`
	GatewayResp   datatypes.JSON `gorm:"type:json"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }
