package models

import (
	"time"
)

// MailAccount represents one linked mailbox for one owning user.
// The email address is globally unique across all users because push
// notifications carry only the address, not the owner.
type MailAccount struct {
	ID     string `gorm:"primaryKey;size:64" json:"id"`
	UserID string `gorm:"not null;index;size:64" json:"user_id"`
	Email  string `gorm:"uniqueIndex;not null;size:255" json:"email"`

	AccessToken  string `gorm:"not null" json:"-"`
	RefreshToken string `json:"-"`

	// SyncCursor is the opaque historyId issued by the mailbox provider.
	// It is advanced only through AccountRepository.AdvanceCursor, which
	// performs a compare-and-swap so overlapping passes cannot race it.
	SyncCursor    string `gorm:"size:64" json:"sync_cursor"`
	CursorVersion int64  `gorm:"default:0" json:"cursor_version"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for MailAccount
func (MailAccount) TableName() string {
	return "mail_accounts"
}
