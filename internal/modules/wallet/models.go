package wallet

import "time"

const (
	TypeCredit = "CREDIT"
	TypeDebit  = "DEBIT"

	StatusCompleted = "COMPLETED"
)

// WalletTransaction is the append-only ledger behind User.WalletBalance.
// Balance mutation and ledger insert always share one transaction, and the
// unique reference prevents double-application of the same event.
type WalletTransaction struct {
	ID          string  `gorm:"type:char(36);primaryKey"`
	UserID      string  `gorm:"type:char(36);not null;index:ix_wallet_transactions_user_id"`
	Type        string  `gorm:"type:varchar(16);not null"`
	Amount      float64 `gorm:"not null"`
	Method      string  `gorm:"type:varchar(32)"`
	Description string  `gorm:"type:varchar(255);not null"`
	Status      string  `gorm:"type:varchar(32);not null"`
	Reference   string  `gorm:"type:varchar(64);not null;uniqueIndex:ux_wallet_transactions_reference"`

	CreatedAt time.Time `gorm:"not null"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }
