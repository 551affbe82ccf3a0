package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DonaldKnut/marketdotcom/internal/http/middleware"
	"github.com/DonaldKnut/marketdotcom/internal/http/validation"
	"github.com/DonaldKnut/marketdotcom/internal/modules/payments"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

type PaymentHandler struct {
	Payments *payments.Service
}

func NewPaymentHandler(svc *payments.Service) *PaymentHandler {
	return &PaymentHandler{Payments: svc}
}

type initializePaymentInput struct {
	OrderID       string  `json:"orderId" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethod string  `json:"paymentMethod" binding:"omitempty,max=32"`
}

// POST /api/payments/initialize
func (h *PaymentHandler) Initialize(c *gin.Context) {
	cu, _ := middleware.CurrentUser(c)

	var in initializePaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid payment data.", validation.FromBindError(err, &in)))
		return
	}

	res, err := h.Payments.Initialize(c.Request.Context(), cu.ID, payments.InitializeInput{
		OrderID:       in.OrderID,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference":        res.Reference,
		"authorizationUrl": res.AuthorizationURL,
		"accessCode":       res.AccessCode,
	})
}

type verifyPaymentInput struct {
	Reference string `json:"reference" binding:"required"`
}

// POST /api/payments/verify
func (h *PaymentHandler) Verify(c *gin.Context) {
	cu, _ := middleware.CurrentUser(c)

	var in verifyPaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Payment reference is required.", validation.FromBindError(err, &in)))
		return
	}

	res, err := h.Payments.Verify(c.Request.Context(), cu.ID, in.Reference)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentStatus": res.PaymentStatus,
		"orderStatus":   res.OrderStatus,
		"reference":     res.Reference,
		"amount":        res.Amount,
		"gatewayStatus": res.GatewayStatus,
		"paidAt":        res.PaidAt,
	})
}
