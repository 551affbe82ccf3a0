package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DonaldKnut/marketdotcom/internal/http/middleware"
	"github.com/DonaldKnut/marketdotcom/internal/modules/notifications"
)

type NotificationHandler struct {
	Notifier *notifications.Notifier
}

func NewNotificationHandler(n *notifications.Notifier) *NotificationHandler {
	return &NotificationHandler{Notifier: n}
}

// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	cu, _ := middleware.CurrentUser(c)

	list, err := h.Notifier.ListForUser(c.Request.Context(), cu.ID, 50)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, n := range list {
		out = append(out, gin.H{
			"id":        n.ID,
			"orderId":   n.OrderID,
			"title":     n.Title,
			"message":   n.Message,
			"type":      n.Type,
			"read":      n.Read,
			"createdAt": n.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	cu, _ := middleware.CurrentUser(c)

	if err := h.Notifier.MarkRead(c.Request.Context(), cu.ID, c.Param("id")); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read."})
}
