package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DonaldKnut/marketdotcom/internal/http/middleware"
	"github.com/DonaldKnut/marketdotcom/internal/http/validation"
	"github.com/DonaldKnut/marketdotcom/internal/modules/orders"
	"github.com/DonaldKnut/marketdotcom/internal/modules/users"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

type OrderHandler struct {
	Orders *orders.Service
	Admin  *orders.AdminService
	Repo   *orders.Repo
}

func NewOrderHandler(svc *orders.Service, admin *orders.AdminService, repo *orders.Repo) *OrderHandler {
	return &OrderHandler{Orders: svc, Admin: admin, Repo: repo}
}

type orderItemInput struct {
	ProductID   string `json:"productId" binding:"required"`
	VariationID string `json:"variationId"`
	Quantity    int    `json:"quantity" binding:"omitempty,min=1"`
}

type deliveryInput struct {
	Address       string `json:"address" binding:"required,max=255"`
	City          string `json:"city" binding:"omitempty,max=100"`
	State         string `json:"state" binding:"omitempty,max=100"`
	ScheduledDate string `json:"scheduledDate" binding:"omitempty"`
	ScheduledTime string `json:"scheduledTime" binding:"omitempty,max=32"`
}

type createOrderInput struct {
	Items         []orderItemInput `json:"items" binding:"required,min=1,dive"`
	Delivery      deliveryInput    `json:"delivery" binding:"required"`
	PaymentMethod string           `json:"paymentMethod" binding:"omitempty,max=32"`
}

// POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	cu, _ := middleware.CurrentUser(c)

	var in createOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid order data.", validation.FromBindError(err, &in)))
		return
	}

	items := make([]orders.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, orders.ItemInput{
			ProductID:   it.ProductID,
			VariationID: it.VariationID,
			Quantity:    it.Quantity,
		})
	}

	var scheduledDate *time.Time
	if in.Delivery.ScheduledDate != "" {
		t, err := time.Parse("2006-01-02", in.Delivery.ScheduledDate)
		if err != nil {
			middleware.Fail(c, apperr.InvalidErr("Invalid delivery date.", map[string]string{"scheduledDate": "expected YYYY-MM-DD"}))
			return
		}
		scheduledDate = &t
	}

	ord, err := h.Orders.Create(c.Request.Context(), orders.CreateInput{
		UserID: cu.ID,
		Items:  items,
		Delivery: orders.DeliveryInfo{
			Address:       in.Delivery.Address,
			City:          in.Delivery.City,
			State:         in.Delivery.State,
			ScheduledDate: scheduledDate,
			ScheduledTime: in.Delivery.ScheduledTime,
		},
		PaymentMethod: in.PaymentMethod,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": orderJSON(ord)})
}

// GET /api/orders?status=
// Customers see their own orders; admins see all.
func (h *OrderHandler) List(c *gin.Context) {
	cu, _ := middleware.CurrentUser(c)

	params := orders.ListParams{Status: c.Query("status")}
	if cu.Role != users.RoleAdmin {
		params.UserID = cu.ID
	}

	list, err := h.Repo.List(c.Request.Context(), params)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, o := range list {
		out = append(out, orderJSON(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	cu, _ := middleware.CurrentUser(c)

	ord, items, delivery, err := h.Repo.GetWithItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if ord.UserID != cu.ID && cu.Role != users.RoleAdmin {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}

	itemsOut := make([]gin.H, 0, len(items))
	for _, it := range items {
		itemsOut = append(itemsOut, gin.H{
			"id":          it.ID,
			"productId":   it.ProductID,
			"variationId": it.VariationID,
			"productName": it.ProductName,
			"quantity":    it.Quantity,
			"unitPrice":   it.UnitPrice,
			"lineTotal":   it.LineTotal,
		})
	}

	payload := gin.H{"order": orderJSON(ord), "items": itemsOut}
	if delivery != nil {
		payload["delivery"] = gin.H{
			"address":       delivery.Address,
			"city":          delivery.City,
			"state":         delivery.State,
			"scheduledDate": delivery.ScheduledDate,
			"scheduledTime": delivery.ScheduledTime,
			"status":        delivery.Status,
		}
	}
	c.JSON(http.StatusOK, payload)
}

type updateOrderInput struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// PUT /api/orders  (admin)
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	cu, _ := middleware.CurrentUser(c)

	var in updateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid status update.", validation.FromBindError(err, &in)))
		return
	}

	ord, err := h.Admin.UpdateStatus(c.Request.Context(), orders.UpdateStatusInput{
		OrderID:   in.OrderID,
		NewStatus: in.Status,
		ActorID:   cu.ID,
		ActorRole: cu.Role,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": orderJSON(ord)})
}

func orderJSON(o orders.Order) gin.H {
	return gin.H{
		"id":            o.ID,
		"userId":        o.UserID,
		"status":        o.Status,
		"paymentStatus": o.PaymentStatus,
		"transactionId": o.TransactionID,
		"paymentMethod": o.PaymentMethod,
		"subtotal":      o.Subtotal,
		"deliveryFee":   o.DeliveryFee,
		"finalAmount":   o.FinalAmount,
		"createdAt":     o.CreatedAt,
		"updatedAt":     o.UpdatedAt,
	}
}
