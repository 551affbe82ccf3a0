package rewards

import "time"

const (
	TypePurchase   = "PURCHASE"
	TypeRedemption = "REDEMPTION"
	TypeFunding    = "FUNDING"
)

// Reward is an append-only record of loyalty points earned or spent.
// Negative Points means a redemption.
type Reward struct {
	ID          string  `gorm:"type:char(36);primaryKey"`
	UserID      string  `gorm:"type:char(36);not null;index:ix_rewards_user_id"`
	OrderID     *string `gorm:"type:char(36)"`
	Points      int     `gorm:"not null"`
	Type        string  `gorm:"type:varchar(32);not null"`
	Description string  `gorm:"type:varchar(255);not null"`

	CreatedAt time.Time `gorm:"not null"`
}

func (Reward) TableName() string { return "rewards" }
