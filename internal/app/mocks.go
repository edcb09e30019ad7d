package app

import (
	"context"
	"strings"

	"cycup_backend/internal/email"
	"cycup_backend/internal/logger"
)

// LogEmailProvider используется, когда SMTP не настроен: письмо только логируется.
type LogEmailProvider struct{}

func (p *LogEmailProvider) Send(msg *email.Email) error {
	masked := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		masked = append(masked, logger.MaskEmail(to))
	}
	logger.Warn("SMTP is not configured, email not sent",
		"to", strings.Join(masked, ","),
		"subject", msg.Subject,
	)
	return nil
}

func (p *LogEmailProvider) Close() error { return nil }

// inlineDispatcher отправляет письмо сразу, без очереди (нет Redis)
type inlineDispatcher struct {
	mailer *email.Mailer
}

func (d *inlineDispatcher) EnqueueVerificationEmail(_ context.Context, to, pinCode string) error {
	return d.mailer.SendVerificationPin(to, pinCode)
}

func (d *inlineDispatcher) EnqueuePasswordResetEmail(_ context.Context, to, resetToken string) error {
	return d.mailer.SendPasswordReset(to, resetToken)
}
