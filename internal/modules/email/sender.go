// Package email composes the storefront's transactional messages and sends
// them best-effort: a failed send is logged and never propagated, the
// primary state transition is the source of truth.
package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/DonaldKnut/marketdotcom/internal/mailer"
)

type Sender struct {
	mail     mailer.Service
	from     string
	fromName string
	logger   *slog.Logger
}

func NewSender(m mailer.Service, from, fromName string, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{mail: m, from: from, fromName: fromName, logger: logger}
}

func (s *Sender) send(ctx context.Context, to, subject, textBody, htmlBody string) {
	if s == nil || s.mail == nil || strings.TrimSpace(to) == "" {
		return
	}
	e := mailer.Email{
		FromName: s.fromName,
		From:     s.from,
		To:       []string{to},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
	if err := s.mail.Send(ctx, e); err != nil {
		s.logger.Warn("email send failed", "to", to, "subject", subject, "err", err)
	}
}

func (s *Sender) SendVerificationCode(ctx context.Context, to, name, code string) {
	subject := "Verify your email"
	text := fmt.Sprintf("Hi %s,\n\nYour verification code is %s. It expires in 10 minutes.\n", name, code)
	htmlBody := wrap(fmt.Sprintf(
		`<p>Hi %s,</p><p>Your verification code is <strong>%s</strong>. It expires in 10 minutes.</p>`,
		html.EscapeString(name), html.EscapeString(code)))
	s.send(ctx, to, subject, text, htmlBody)
}

func (s *Sender) SendPaymentResult(ctx context.Context, to, name, orderID string, amount float64, success bool) {
	var subject, line string
	if success {
		subject = "Payment successful"
		line = fmt.Sprintf("Your payment of ₦%.2f for order #%s has been processed successfully.", amount, orderID)
	} else {
		subject = "Payment failed"
		line = fmt.Sprintf("Your payment for order #%s could not be processed. Please try again or contact support.", orderID)
	}
	text := fmt.Sprintf("Hi %s,\n\n%s\n", name, line)
	htmlBody := wrap(fmt.Sprintf(`<p>Hi %s,</p><p>%s</p>`, html.EscapeString(name), html.EscapeString(line)))
	s.send(ctx, to, subject, text, htmlBody)
}

type DeliveryDetails struct {
	Date    string
	Time    string
	Address string
}

func (s *Sender) SendOrderStatusUpdate(ctx context.Context, to, name, orderID, status string, d *DeliveryDetails) {
	subject := "Order status updated"
	line := fmt.Sprintf("Your order #%s status has been updated to %s.", orderID, status)
	var extra string
	if d != nil {
		extra = fmt.Sprintf("Delivery: %s %s, %s.", d.Date, d.Time, d.Address)
	}
	text := fmt.Sprintf("Hi %s,\n\n%s\n%s\n", name, line, extra)
	htmlBody := wrap(fmt.Sprintf(`<p>Hi %s,</p><p>%s</p><p>%s</p>`,
		html.EscapeString(name), html.EscapeString(line), html.EscapeString(extra)))
	s.send(ctx, to, subject, text, htmlBody)
}

func wrap(body string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body style="font-family: sans-serif;">`)
	sb.WriteString(body)
	sb.WriteString(`<p>Thanks,<br/>The MarketDotCom Team</p>`)
	sb.WriteString(`</body></html>`)
	return sb.String()
}
