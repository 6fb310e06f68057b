package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexey192/calendarit/internal/models"
	"gorm.io/gorm"
)

// EventRepository defines the interface for persisted event data access
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ExistsBySource(ctx context.Context, accountID, sourceMessageID string, sourceIndex int) (bool, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Event, int64, error)
	MarkSeen(ctx context.Context, id string) error
}

// eventRepository implements EventRepository using GORM
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository instance
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create persists an extracted event
func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	result := r.db.WithContext(ctx).Create(event)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("event already persisted: %w", ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create event: %w", result.Error)
	}
	return nil
}

// GetByID retrieves an event by its id
func (r *eventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", result.Error)
	}
	return &event, nil
}

// ExistsBySource reports whether an event from the same message position
// was already persisted for this account. Used for redelivery dedup.
func (r *eventRepository) ExistsBySource(ctx context.Context, accountID, sourceMessageID string, sourceIndex int) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("account_id = ? AND source_message_id = ? AND source_index = ?", accountID, sourceMessageID, sourceIndex).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check event existence: %w", result.Error)
	}
	return count > 0, nil
}

// ListByUser retrieves a user's events with pagination, newest first
func (r *eventRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Event, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	var events []models.Event
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", result.Error)
	}

	return events, total, nil
}

// MarkSeen flags an event as seen by the user
func (r *eventRepository) MarkSeen(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Update("seen", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark event seen: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
