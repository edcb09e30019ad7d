package email

// Provider определяет интерфейс для отправки email
type Provider interface {
	Send(email *Email) error
	Close() error
}
