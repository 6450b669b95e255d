package models

import "time"

// ContentType enumerates the kinds of daily content.
type ContentType string

const (
	ContentQuote       ContentType = "quote"
	ContentTip         ContentType = "tip"
	ContentChallenge   ContentType = "challenge"
	ContentAffirmation ContentType = "affirmation"
	ContentReflection  ContentType = "reflection"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case ContentQuote, ContentTip, ContentChallenge, ContentAffirmation, ContentReflection:
		return true
	}
	return false
}

// ContentItemDateIndex guarantees one scheduled item per calendar date.
const ContentItemDateIndex = "idx_content_items_date"

// ContentItem is the piece of content scheduled for one calendar date.
type ContentItem struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Date        string      `gorm:"size:10;not null;uniqueIndex:idx_content_items_date" json:"date"` // YYYY-MM-DD
	ContentType ContentType `gorm:"size:16;not null" json:"content_type"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Message     string      `gorm:"type:text;not null" json:"message"`
	MediaURL    string      `gorm:"size:1024" json:"media_url,omitempty"`
	Category    string      `gorm:"size:64" json:"category,omitempty"`
	IsActive    bool        `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
