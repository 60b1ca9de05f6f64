package services

import (
	"context"
	"sync"
	"time"
)

// SentVerification records a call to SendVerificationCode
type SentVerification struct {
	Email string
	Code  string
}

// SentOrderAccepted records a call to SendOrderAccepted
type SentOrderAccepted struct {
	Email    string
	OrderID  uint
	Deadline time.Time
}

// MockNotifier is a Notifier that records every email for test assertions
type MockNotifier struct {
	mu            sync.Mutex
	Verifications []SentVerification
	Accepted      []SentOrderAccepted
	Err           error
}

// NewMockNotifier creates an empty mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Verifications = append(m.Verifications, SentVerification{Email: email, Code: code})
	return m.Err
}

func (m *MockNotifier) SendOrderAccepted(ctx context.Context, email string, orderID uint, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Accepted = append(m.Accepted, SentOrderAccepted{Email: email, OrderID: orderID, Deadline: deadline})
	return m.Err
}

// LastVerificationCode returns the most recent code sent to email
func (m *MockNotifier) LastVerificationCode(email string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Verifications) - 1; i >= 0; i-- {
		if m.Verifications[i].Email == email {
			return m.Verifications[i].Code, true
		}
	}
	return "", false
}

// AcceptedCount returns how many acceptance emails were sent
func (m *MockNotifier) AcceptedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Accepted)
}
