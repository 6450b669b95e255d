// Package testutil builds throwaway databases, caches and clocks for tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/dailystreak/config"
	"github.com/cppla/dailystreak/models"
)

// NewDB opens a private in-memory SQLite database with the full schema.
// A single connection serialises transactions the way row locks would.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

// NewRedis starts a miniredis server and returns a client bound to it.
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	require.NoError(t, rc.Ping(context.Background()).Err())
	return rc, mr
}

// CreateUser inserts a user row.
func CreateUser(t testing.TB, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// ScheduleContent inserts an active quote for each date.
func ScheduleContent(t testing.TB, db *gorm.DB, dates ...string) []models.ContentItem {
	t.Helper()
	items := make([]models.ContentItem, 0, len(dates))
	for _, d := range dates {
		item := models.ContentItem{
			Date:        d,
			ContentType: models.ContentQuote,
			Title:       "Quote for " + d,
			Message:     "Keep moving.",
			IsActive:    true,
		}
		require.NoError(t, db.Create(&item).Error)
		items = append(items, item)
	}
	return items
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts the clock at noon UTC on date (YYYY-MM-DD).
func NewClock(t testing.TB, date string) *Clock {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	return &Clock{now: d.Add(12 * time.Hour)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to noon UTC on date.
func (c *Clock) Set(date string) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	c.now = d.Add(12 * time.Hour)
	c.mu.Unlock()
}
