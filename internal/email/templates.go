package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

const (
	TemplateVerificationPin = "verification-pin"
	TemplatePasswordReset   = "password-reset"
)

const verificationPinTemplate = `<p>Hello,</p>
<p>Your CyCup verification PIN is <strong>{{.PinCode}}</strong>.</p>
<p>The PIN expires in {{.ExpiresInMinutes}} minutes. Use it together with your new password to activate your account.</p>
<p>If you did not register on CyCup, you can ignore this email.</p>`

const passwordResetTemplate = `<p>Hello,</p>
<p>We received a request to reset your CyCup password.</p>
<p><a href="{{.ResetURL}}">Reset your password</a></p>
<p>The link expires in {{.ExpiresInMinutes}} minutes. If you did not ask for a reset, you can ignore this email.</p>`

// TemplateManager хранит разобранные HTML шаблоны писем
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager создает менеджер со встроенными шаблонами
func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
	}
	for name, body := range map[string]string{
		TemplateVerificationPin: verificationPinTemplate,
		TemplatePasswordReset:   passwordResetTemplate,
	} {
		if err := tm.AddTemplate(name, body); err != nil {
			panic(err)
		}
	}
	return tm
}

func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// AddTemplate добавляет или заменяет шаблон
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()
	return nil
}
