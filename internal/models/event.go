package models

import (
	"time"
)

// Event categories form a closed enumeration. Drafts with any other
// category value are rejected before persistence.
const (
	CategorySport         = "Sport"
	CategoryMusic         = "Music"
	CategoryEducation     = "Education"
	CategoryWork          = "Work"
	CategoryHealth        = "Health"
	CategoryArtsCulture   = "Arts & Culture"
	CategorySocial        = "Social & Entertainment"
	CategoryOthers        = "Others"
)

// Event statuses
const (
	EventStatusPending   = "pending"
	EventStatusConfirmed = "confirmed"
	EventStatusDismissed = "dismissed"
)

// Event sources (origin channel of the message the event was extracted from)
const (
	SourceGmail = "gmail"
	SourceSMTP  = "smtp"
)

var categories = map[string]bool{
	CategorySport:       true,
	CategoryMusic:       true,
	CategoryEducation:   true,
	CategoryWork:        true,
	CategoryHealth:      true,
	CategoryArtsCulture: true,
	CategorySocial:      true,
	CategoryOthers:      true,
}

// IsValidCategory reports whether v is a member of the closed category set.
func IsValidCategory(v string) bool {
	return categories[v]
}

// Event is a calendar event extracted from a message and durably stored.
// Created once by the sync pipeline; later mutated only by consumer-facing
// endpoints (seen/status), never by the pipeline itself.
type Event struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	UserID    string `gorm:"not null;index;size:64" json:"user_id"`
	AccountID string `gorm:"not null;index;size:64" json:"account_id"`

	// Source identifies the ingest channel; SourceMessageID plus
	// SourceIndex form the natural dedup key within an account.
	Source          string `gorm:"not null;size:16" json:"source"`
	SourceMessageID string `gorm:"not null;index:idx_events_source_msg;size:128" json:"source_message_id"`
	SourceIndex     int    `gorm:"not null;index:idx_events_source_msg" json:"source_index"`

	Title       string `gorm:"not null;size:512" json:"title"`
	Location    string `gorm:"size:512" json:"location,omitempty"`
	Description string `json:"description"`
	Category    string `gorm:"not null;size:32" json:"category"`

	// StartAt and EndAt are UTC. EndAt is null exactly when StartAt is.
	StartAt         *time.Time `json:"start_at,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	IsTimeSpecified bool       `gorm:"default:false" json:"is_time_specified"`

	Seen      bool      `gorm:"default:false" json:"seen"`
	Status    string    `gorm:"not null;default:pending;size:16" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Event
func (Event) TableName() string {
	return "events"
}
