package testutil

import (
	"context"
	"sync"
)

// FakeDispatcher запоминает последние PIN и токены сброса по email
type FakeDispatcher struct {
	mu          sync.Mutex
	pins        map[string]string
	resetTokens map[string]string

	// Err возвращается из каждого вызова, если задан
	Err error
}

func NewFakeDispatcher() *FakeDispatcher {
	return &FakeDispatcher{
		pins:        make(map[string]string),
		resetTokens: make(map[string]string),
	}
}

func (d *FakeDispatcher) EnqueueVerificationEmail(_ context.Context, email, pinCode string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.pins[email] = pinCode
	return nil
}

func (d *FakeDispatcher) EnqueuePasswordResetEmail(_ context.Context, email, resetToken string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.resetTokens[email] = resetToken
	return nil
}

func (d *FakeDispatcher) Pin(email string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pins[email]
}

func (d *FakeDispatcher) ResetToken(email string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resetTokens[email]
}
