package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/alexey192/calendarit/internal/models"
)

// MockSubscriptionService is a mock implementation of services.SubscriptionService
type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) Subscribe(ctx context.Context, userID, accountID string) (string, error) {
	args := m.Called(ctx, userID, accountID)
	return args.String(0), args.Error(1)
}

// MockSyncService is a mock implementation of services.SyncService
type MockSyncService struct {
	mock.Mock

	// Done is closed-compatible signalling for handlers that dispatch
	// asynchronously; tests can wait on it.
	Done chan struct{}
}

func (m *MockSyncService) HandleNotification(ctx context.Context, emailAddress, historyID string) error {
	args := m.Called(ctx, emailAddress, historyID)
	if m.Done != nil {
		m.Done <- struct{}{}
	}
	return args.Error(0)
}

func (m *MockSyncService) SyncAccount(ctx context.Context, account *models.MailAccount, toCursor string) error {
	args := m.Called(ctx, account, toCursor)
	return args.Error(0)
}

func (m *MockSyncService) IngestForwarded(ctx context.Context, account *models.MailAccount, messageID, subject, body string) error {
	args := m.Called(ctx, account, messageID, subject, body)
	return args.Error(0)
}
