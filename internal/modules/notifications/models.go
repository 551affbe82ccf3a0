package notifications

import "time"

const (
	TypeOrder   = "ORDER"
	TypePayment = "PAYMENT"
	TypeWallet  = "WALLET"
	TypeReward  = "REWARD"
)

// Notification rows are append-only; there is no consumer-side ack beyond
// the read flag.
type Notification struct {
	ID      string  `gorm:"type:char(36);primaryKey"`
	UserID  string  `gorm:"type:char(36);not null;index:ix_notifications_user_id"`
	OrderID *string `gorm:"type:char(36)"`
	Title   string  `gorm:"type:varchar(255);not null"`
	Message string  `gorm:"type:text;not null"`
	Type    string  `gorm:"type:varchar(32);not null"`
	Read    bool    `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null"`
}

func (Notification) TableName() string { return "notifications" }
