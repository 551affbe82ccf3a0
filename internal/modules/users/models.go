package users

import "time"

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

type User struct {
	ID           string  `gorm:"type:char(36);primaryKey"`
	Name         string  `gorm:"type:varchar(255);not null"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Phone        *string `gorm:"type:varchar(32)"`
	PasswordHash string  `gorm:"type:varchar(255);not null"`
	Role         string  `gorm:"type:varchar(16);not null;default:CUSTOMER"`

	// Wallet balance is a cached aggregate of wallet_transactions; both are
	// always written inside the same transaction.
	WalletBalance float64 `gorm:"not null;default:0"`
	Points        int     `gorm:"not null;default:0"`

	ReferralCode string  `gorm:"type:varchar(32);not null;uniqueIndex:ux_users_referral_code"`
	ReferredByID *string `gorm:"type:char(36);index:ix_users_referred_by"`

	EmailVerificationCode *string `gorm:"type:varchar(16)"`
	VerificationExpiresAt *time.Time
	EmailVerifiedAt       *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }
