package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notifier struct{ db *gorm.DB }

func NewNotifier(db *gorm.DB) *Notifier { return &Notifier{db: db} }

// Push inserts a notification using the given handle, which may be a
// transaction when the notification must commit with the state change.
func (n *Notifier) Push(ctx context.Context, tx *gorm.DB, userID, title, message, kind string, orderID *string) error {
	if tx == nil {
		tx = n.db
	}
	row := Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		OrderID:   orderID,
		Title:     title,
		Message:   message,
		Type:      kind,
		CreatedAt: time.Now(),
	}
	return tx.WithContext(ctx).Create(&row).Error
}

func (n *Notifier) ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	var rows []Notification
	err := n.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (n *Notifier) MarkRead(ctx context.Context, userID, id string) error {
	return n.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true).Error
}
