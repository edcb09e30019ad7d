package email

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	SubjectVerificationPin = "Your CyCup verification PIN"
	SubjectPasswordReset   = "Reset your CyCup password"
)

// Mailer собирает письма сервиса из шаблонов и отдает их провайдеру
type Mailer struct {
	provider    Provider
	templates   *TemplateManager
	frontendURL string
	pinTTL      time.Duration
	resetTTL    time.Duration
}

func NewMailer(provider Provider, frontendURL string, pinTTL, resetTTL time.Duration) *Mailer {
	return &Mailer{
		provider:    provider,
		templates:   NewTemplateManager(),
		frontendURL: strings.TrimRight(frontendURL, "/"),
		pinTTL:      pinTTL,
		resetTTL:    resetTTL,
	}
}

func (m *Mailer) SendVerificationPin(to, pinCode string) error {
	html, err := m.templates.Render(TemplateVerificationPin, TemplateData{
		"PinCode":          pinCode,
		"ExpiresInMinutes": int(m.pinTTL.Minutes()),
	})
	if err != nil {
		return err
	}
	return m.provider.Send(&Email{
		To:       []string{to},
		Subject:  SubjectVerificationPin,
		Body:     fmt.Sprintf("Your CyCup verification PIN is %s", pinCode),
		HTMLBody: html,
	})
}

func (m *Mailer) SendPasswordReset(to, resetToken string) error {
	resetURL := m.ResetURL(resetToken)
	html, err := m.templates.Render(TemplatePasswordReset, TemplateData{
		"ResetURL":         resetURL,
		"ExpiresInMinutes": int(m.resetTTL.Minutes()),
	})
	if err != nil {
		return err
	}
	return m.provider.Send(&Email{
		To:       []string{to},
		Subject:  SubjectPasswordReset,
		Body:     fmt.Sprintf("Reset your CyCup password: %s", resetURL),
		HTMLBody: html,
	})
}

func (m *Mailer) ResetURL(resetToken string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", m.frontendURL, url.QueryEscape(resetToken))
}
