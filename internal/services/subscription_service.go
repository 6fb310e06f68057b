package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/alexey192/calendarit/internal/errors"
	"github.com/alexey192/calendarit/internal/gmail"
	"github.com/alexey192/calendarit/internal/repository"
)

// SubscriptionService defines the interface for push-watch registration
type SubscriptionService interface {
	// Subscribe registers the push watch for one account and seeds its
	// sync cursor. Returns the seed cursor (the provider historyId).
	Subscribe(ctx context.Context, userID, accountID string) (string, error)
}

// subscriptionService implements SubscriptionService
type subscriptionService struct {
	accounts repository.AccountRepository
	provider gmail.Provider
	logger   *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService instance
func NewSubscriptionService(accounts repository.AccountRepository, provider gmail.Provider, logger *slog.Logger) SubscriptionService {
	return &subscriptionService{
		accounts: accounts,
		provider: provider,
		logger:   logger,
	}
}

// Subscribe loads the account, registers the watch and seeds the cursor.
// Re-subscribing an already-subscribed account is valid and reseeds the
// cursor from the new watch.
func (s *subscriptionService) Subscribe(ctx context.Context, userID, accountID string) (string, error) {
	account, err := s.accounts.GetByID(ctx, userID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.ErrAccountNotFound
		}
		return "", fmt.Errorf("failed to load account: %w", err)
	}

	client, err := s.provider.ClientFor(ctx, account)
	if err != nil {
		return "", fmt.Errorf("failed to build provider client: %w", err)
	}

	historyID, err := client.Watch(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to register watch: %w", err)
	}

	if err := s.accounts.SeedCursor(ctx, account.ID, historyID); err != nil {
		return "", fmt.Errorf("failed to seed cursor: %w", err)
	}

	s.logger.Info("subscription registered",
		slog.String("user_id", userID),
		slog.String("account_id", accountID),
		slog.String("history_id", historyID))

	return historyID, nil
}
