package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/dailystreak/models"
	"github.com/cppla/dailystreak/services"
	"github.com/cppla/dailystreak/utils"
)

const (
	statsCacheKey = "cache:stats:community"
	statsCacheTTL = time.Minute
	leaderboardN  = 10
)

// StatsController provides community check-in statistics.
type StatsController struct {
	db    *gorm.DB
	cal   *services.Calendar
	cache *utils.Cache
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, cal *services.Calendar, cache *utils.Cache) *StatsController {
	return &StatsController{db: db, cal: cal, cache: cache}
}

// LeaderboardEntry is one row of the longest-streak board.
type LeaderboardEntry struct {
	UserID        uint   `json:"user_id"`
	Username      string `json:"username"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// CommunityStats is the payload of GetStats.
type CommunityStats struct {
	Date          string             `json:"date"`
	TotalCheckIns int64              `json:"total_check_ins"`
	TodayCheckIns int64              `json:"today_check_ins"`
	ActiveStreaks int64              `json:"active_streaks"`
	TopStreaks    []LeaderboardEntry `json:"top_streaks"`
}

// GetStats returns aggregate check-in statistics. Individual query failures
// are logged and degrade to zero values; a degraded result is not cached.
func (s *StatsController) GetStats(ctx *gin.Context) {
	rctx := ctx.Request.Context()
	today := s.cal.Today()

	var cached CommunityStats
	if s.cache.GetJSON(rctx, statsCacheKey, &cached) && cached.Date == today {
		utils.Success(ctx, cached)
		return
	}

	stats := CommunityStats{Date: today, TopStreaks: []LeaderboardEntry{}}
	db := s.db.WithContext(rctx)
	degraded := false
	warn := func(query string, err error) {
		degraded = true
		utils.Logger.Warn("stats query failed", zap.String("query", query), zap.Error(err))
	}

	if err := db.Model(&models.CheckIn{}).Count(&stats.TotalCheckIns).Error; err != nil {
		warn("total_check_ins", err)
		stats.TotalCheckIns = 0
	}
	if err := db.Model(&models.CheckIn{}).Where("check_in_date = ?", today).Count(&stats.TodayCheckIns).Error; err != nil {
		warn("today_check_ins", err)
		stats.TodayCheckIns = 0
	}

	// A streak is alive while the last check-in is today or yesterday.
	yesterday := services.AddDays(today, -1)
	if err := db.Model(&models.StreakState{}).
		Where("current_streak > 0 AND last_check_in_date >= ?", yesterday).
		Count(&stats.ActiveStreaks).Error; err != nil {
		warn("active_streaks", err)
		stats.ActiveStreaks = 0
	}

	if err := db.Table("streak_states").
		Select("streak_states.user_id, users.username, streak_states.current_streak, streak_states.longest_streak").
		Joins("JOIN users ON users.id = streak_states.user_id AND users.deleted_at IS NULL").
		Order("streak_states.longest_streak DESC, streak_states.user_id ASC").
		Limit(leaderboardN).
		Scan(&stats.TopStreaks).Error; err != nil {
		warn("top_streaks", err)
		stats.TopStreaks = []LeaderboardEntry{}
	}

	if !degraded {
		s.cache.SetJSON(rctx, statsCacheKey, stats, statsCacheTTL)
	}
	utils.Success(ctx, stats)
}
