package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DonaldKnut/marketdotcom/internal/http/middleware"
	"github.com/DonaldKnut/marketdotcom/internal/http/validation"
	"github.com/DonaldKnut/marketdotcom/internal/modules/wallet"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

type WalletHandler struct {
	Wallet *wallet.Service
}

func NewWalletHandler(svc *wallet.Service) *WalletHandler {
	return &WalletHandler{Wallet: svc}
}

// GET /api/wallet
func (h *WalletHandler) Overview(c *gin.Context) {
	cu, _ := middleware.CurrentUser(c)

	ov, err := h.Wallet.Overview(c.Request.Context(), cu.ID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	txs := make([]gin.H, 0, len(ov.Transactions))
	for _, tx := range ov.Transactions {
		txs = append(txs, gin.H{
			"id":          tx.ID,
			"type":        tx.Type,
			"amount":      tx.Amount,
			"method":      tx.Method,
			"description": tx.Description,
			"status":      tx.Status,
			"reference":   tx.Reference,
			"createdAt":   tx.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"walletBalance": ov.WalletBalance,
		"points":        ov.Points,
		"referralCode":  ov.ReferralCode,
		"referralCount": ov.ReferralCount,
		"transactions":  txs,
	})
}

type fundWalletInput struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"omitempty,max=32"`
}

// POST /api/wallet/fund
func (h *WalletHandler) Fund(c *gin.Context) {
	cu, _ := middleware.CurrentUser(c)

	var in fundWalletInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid funding data.", validation.FromBindError(err, &in)))
		return
	}

	res, err := h.Wallet.Fund(c.Request.Context(), cu.ID, in.Amount, in.Method)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"newBalance": res.NewBalance,
		"reference":  res.Reference,
	})
}

type redeemPointsInput struct {
	Points int `json:"points" binding:"required,gt=0"`
}

// POST /api/wallet/redeem
func (h *WalletHandler) Redeem(c *gin.Context) {
	cu, _ := middleware.CurrentUser(c)

	var in redeemPointsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid redemption data.", validation.FromBindError(err, &in)))
		return
	}

	res, err := h.Wallet.RedeemPoints(c.Request.Context(), cu.ID, in.Points)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pointsRedeemed": res.PointsRedeemed,
		"amountCredited": res.AmountCredited,
		"newBalance":     res.NewBalance,
		"pointsLeft":     res.PointsLeft,
	})
}
