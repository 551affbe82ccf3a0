package payments

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/modules/orders"
)

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// WebhookEvent is the provider's event envelope; Event discriminates.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"` // kobo
	PaidAt    string `json:"paid_at"`
	Status    string `json:"status"`
}

// ParseWebhook decodes a raw (already signature-verified) webhook body.
func ParseWebhook(body []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return WebhookEvent{}, err
	}
	if ev.Event == "" {
		return WebhookEvent{}, errors.New("missing event discriminator")
	}
	return ev, nil
}

// HandleWebhook is the server-pushed reconciliation trigger. Unknown events
// and unknown references are acknowledged without writes: the provider's
// delivery is acked unconditionally once the signature has passed.
func (s *Service) HandleWebhook(ctx context.Context, ev WebhookEvent, rawBody []byte) error {
	var success bool
	switch ev.Event {
	case EventChargeSuccess:
		success = true
	case EventChargeFailed:
		success = false
	default:
		s.logger.Info("unhandled webhook event", "event", ev.Event)
		return nil
	}

	if ev.Data.Reference == "" {
		s.logger.Warn("webhook event missing reference", "event", ev.Event)
		return nil
	}

	var ord orders.Order
	err := s.db.WithContext(ctx).First(&ord, "transaction_id = ?", ev.Data.Reference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("order not found for webhook reference", "reference", ev.Data.Reference, "event", ev.Event)
			return nil
		}
		return err
	}

	amount := float64(ev.Data.Amount) / 100 // kobo to naira
	if amount == 0 {
		amount = ord.FinalAmount
	}
	return s.apply(ctx, ord, success, amount, datatypes.JSON(rawBody))
}
