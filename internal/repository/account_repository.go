package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexey192/calendarit/internal/models"
	"gorm.io/gorm"
)

// AccountRepository defines the interface for mail account data access
type AccountRepository interface {
	Create(ctx context.Context, account *models.MailAccount) error
	GetByID(ctx context.Context, userID, accountID string) (*models.MailAccount, error)
	GetByEmail(ctx context.Context, email string) (*models.MailAccount, error)
	UpdateTokens(ctx context.Context, accountID, accessToken, refreshToken string) error
	SeedCursor(ctx context.Context, accountID, cursor string) error
	AdvanceCursor(ctx context.Context, accountID, fromCursor, toCursor string) error
}

// accountRepository implements AccountRepository using GORM
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new AccountRepository instance
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new mail account
func (r *accountRepository) Create(ctx context.Context, account *models.MailAccount) error {
	result := r.db.WithContext(ctx).Create(account)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("account for '%s' already exists: %w", account.Email, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create account: %w", result.Error)
	}
	return nil
}

// GetByID retrieves an account by owner and account id
func (r *accountRepository) GetByID(ctx context.Context, userID, accountID string) (*models.MailAccount, error) {
	var account models.MailAccount
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, accountID).
		First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by id: %w", result.Error)
	}
	return &account, nil
}

// GetByEmail retrieves the account linked to a mailbox address. The lookup
// spans all owners because push notifications carry only the address.
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.MailAccount, error) {
	var account models.MailAccount
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", result.Error)
	}
	return &account, nil
}

// UpdateTokens stores a refreshed credential pair
func (r *accountRepository) UpdateTokens(ctx context.Context, accountID, accessToken, refreshToken string) error {
	updates := map[string]interface{}{"access_token": accessToken}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	result := r.db.WithContext(ctx).
		Model(&models.MailAccount{}).
		Where("id = ?", accountID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update tokens: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedCursor sets the cursor unconditionally. Used when a watch is
// (re)registered and the provider issues a fresh baseline historyId.
func (r *accountRepository) SeedCursor(ctx context.Context, accountID, cursor string) error {
	result := r.db.WithContext(ctx).
		Model(&models.MailAccount{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"sync_cursor":    cursor,
			"cursor_version": gorm.Expr("cursor_version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to seed cursor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdvanceCursor moves the cursor from fromCursor to toCursor as a
// compare-and-swap. A pass that read a cursor another pass has since
// advanced gets ErrStaleCursor instead of silently winning the write.
func (r *accountRepository) AdvanceCursor(ctx context.Context, accountID, fromCursor, toCursor string) error {
	result := r.db.WithContext(ctx).
		Model(&models.MailAccount{}).
		Where("id = ? AND sync_cursor = ?", accountID, fromCursor).
		Updates(map[string]interface{}{
			"sync_cursor":    toCursor,
			"cursor_version": gorm.Expr("cursor_version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to advance cursor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).
			Model(&models.MailAccount{}).
			Where("id = ?", accountID).
			Count(&exists).Error; err == nil && exists == 0 {
			return ErrNotFound
		}
		return ErrStaleCursor
	}
	return nil
}
