package models

import "time"

// CheckInUserDateIndex enforces at most one check-in per user per calendar date.
const CheckInUserDateIndex = "idx_check_ins_user_date"

// CheckIn is an immutable ledger entry: a user checked in on a calendar date.
type CheckIn struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	UserID        uint         `gorm:"not null;uniqueIndex:idx_check_ins_user_date,priority:1" json:"user_id"`
	ContentItemID uint         `gorm:"not null;index" json:"content_item_id"`
	CheckInDate   string       `gorm:"size:10;not null;uniqueIndex:idx_check_ins_user_date,priority:2;index" json:"check_in_date"`
	Viewed        bool         `gorm:"not null" json:"viewed"`
	Completed     bool         `gorm:"not null" json:"completed"`
	Notes         string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	ContentItem   *ContentItem `json:"content_item,omitempty"`
}
