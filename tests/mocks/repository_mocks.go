// Package mocks provides shared testify mocks for handler and
// integration tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/alexey192/calendarit/internal/models"
)

// MockAccountRepository is a mock implementation of repository.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.MailAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, userID, accountID string) (*models.MailAccount, error) {
	args := m.Called(ctx, userID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MailAccount), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.MailAccount, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MailAccount), args.Error(1)
}

func (m *MockAccountRepository) UpdateTokens(ctx context.Context, accountID, accessToken, refreshToken string) error {
	args := m.Called(ctx, accountID, accessToken, refreshToken)
	return args.Error(0)
}

func (m *MockAccountRepository) SeedCursor(ctx context.Context, accountID, cursor string) error {
	args := m.Called(ctx, accountID, cursor)
	return args.Error(0)
}

func (m *MockAccountRepository) AdvanceCursor(ctx context.Context, accountID, fromCursor, toCursor string) error {
	args := m.Called(ctx, accountID, fromCursor, toCursor)
	return args.Error(0)
}

// MockEventRepository is a mock implementation of repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) ExistsBySource(ctx context.Context, accountID, sourceMessageID string, sourceIndex int) (bool, error) {
	args := m.Called(ctx, accountID, sourceMessageID, sourceIndex)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Event, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Event), args.Get(1).(int64), args.Error(2)
}

func (m *MockEventRepository) MarkSeen(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
