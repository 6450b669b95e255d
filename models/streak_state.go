package models

import "time"

// StreakState is the per-user aggregate maintained alongside every new check-in.
type StreakState struct {
	UserID          uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CurrentStreak   int       `gorm:"not null" json:"current_streak"`
	LongestStreak   int       `gorm:"not null" json:"longest_streak"`
	LastCheckInDate *string   `gorm:"size:10;index" json:"last_check_in_date"`
	TotalCheckIns   int       `gorm:"not null" json:"total_check_ins"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

// All lists every model managed by migrations.
func All() []any {
	return []any{&User{}, &ContentItem{}, &CheckIn{}, &StreakState{}}
}
