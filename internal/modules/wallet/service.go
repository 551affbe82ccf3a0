package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/modules/notifications"
	"github.com/DonaldKnut/marketdotcom/internal/modules/rewards"
	"github.com/DonaldKnut/marketdotcom/internal/modules/users"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
	"github.com/DonaldKnut/marketdotcom/internal/shared/refgen"
)

const (
	MinFundingAmount = 100.0

	// Redemption policy: 10 points convert to ₦1, minimum 1000 points.
	PointsPerNaira  = 10
	MinRedeemPoints = 1000
)

type Service struct {
	db       *gorm.DB
	notifier *notifications.Notifier
	logger   *slog.Logger
}

func NewService(db *gorm.DB, notifier *notifications.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, notifier: notifier, logger: logger}
}

type Overview struct {
	WalletBalance float64
	Points        int
	ReferralCode  string
	ReferralCount int64
	Transactions  []WalletTransaction
}

func (s *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	var u users.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Overview{}, apperr.NotFoundErr("User not found.")
		}
		return Overview{}, err
	}

	var referrals int64
	if err := s.db.WithContext(ctx).Model(&users.User{}).
		Where("referred_by_id = ?", userID).
		Count(&referrals).Error; err != nil {
		return Overview{}, err
	}

	var txs []WalletTransaction
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(20).
		Find(&txs).Error; err != nil {
		return Overview{}, err
	}

	return Overview{
		WalletBalance: u.WalletBalance,
		Points:        u.Points,
		ReferralCode:  u.ReferralCode,
		ReferralCount: referrals,
		Transactions:  txs,
	}, nil
}

type FundResult struct {
	NewBalance float64
	Reference  string
}

// Fund credits the wallet directly; there is no real capture in this path.
// Balance increment and ledger insert commit together.
func (s *Service) Fund(ctx context.Context, userID string, amount float64, method string) (FundResult, error) {
	if amount < MinFundingAmount {
		return FundResult{}, apperr.InvalidErr(fmt.Sprintf("Minimum funding amount is ₦%.0f.", MinFundingAmount), map[string]string{"amount": "below minimum"})
	}
	if method == "" {
		method = "card"
	}

	reference := refgen.New("WF")
	var newBalance float64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u users.User
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundErr("User not found.")
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&users.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"wallet_balance": gorm.Expr("wallet_balance + ?", amount),
				"updated_at":     now,
			}).Error; err != nil {
			return err
		}
		newBalance = u.WalletBalance + amount

		entry := WalletTransaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			Type:        TypeCredit,
			Amount:      amount,
			Method:      method,
			Description: fmt.Sprintf("Wallet funded via %s", method),
			Status:      StatusCompleted,
			Reference:   reference,
			CreatedAt:   now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		msg := fmt.Sprintf("Your wallet has been credited with ₦%.2f", amount)
		return s.notifier.Push(ctx, tx, userID, "Wallet Funded Successfully", msg, notifications.TypeWallet, nil)
	})
	if err != nil {
		return FundResult{}, err
	}
	return FundResult{NewBalance: newBalance, Reference: reference}, nil
}

type RedeemResult struct {
	PointsRedeemed int
	AmountCredited float64
	NewBalance     float64
	PointsLeft     int
}

// RedeemPoints converts loyalty points to wallet credit. The points
// decrement is guarded by a conditional update so concurrent redemptions
// cannot spend the same points twice.
func (s *Service) RedeemPoints(ctx context.Context, userID string, points int) (RedeemResult, error) {
	if points < MinRedeemPoints {
		return RedeemResult{}, apperr.InvalidErr(fmt.Sprintf("Minimum redemption is %d points.", MinRedeemPoints), map[string]string{"points": "below minimum"})
	}
	// round down to a whole-naira multiple
	points = (points / PointsPerNaira) * PointsPerNaira
	amount := float64(points / PointsPerNaira)

	var out RedeemResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		res := tx.Model(&users.User{}).
			Where("id = ? AND points >= ?", userID, points).
			Updates(map[string]any{
				"points":         gorm.Expr("points - ?", points),
				"wallet_balance": gorm.Expr("wallet_balance + ?", amount),
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidErr("Insufficient points.", map[string]string{"points": "insufficient"})
		}

		reward := rewards.Reward{
			ID:          uuid.NewString(),
			UserID:      userID,
			Points:      -points,
			Type:        rewards.TypeRedemption,
			Description: fmt.Sprintf("Redeemed %d points for ₦%.2f wallet credit", points, amount),
			CreatedAt:   now,
		}
		if err := tx.Create(&reward).Error; err != nil {
			return err
		}

		entry := WalletTransaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			Type:        TypeCredit,
			Amount:      amount,
			Method:      "points",
			Description: fmt.Sprintf("Points redemption (%d points)", points),
			Status:      StatusCompleted,
			Reference:   refgen.New("RD"),
			CreatedAt:   now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		var u users.User
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			return err
		}
		out = RedeemResult{
			PointsRedeemed: points,
			AmountCredited: amount,
			NewBalance:     u.WalletBalance,
			PointsLeft:     u.Points,
		}

		msg := fmt.Sprintf("You redeemed %d points for ₦%.2f wallet credit", points, amount)
		return s.notifier.Push(ctx, tx, userID, "Points Redeemed", msg, notifications.TypeReward, nil)
	})
	if err != nil {
		return RedeemResult{}, err
	}
	return out, nil
}
