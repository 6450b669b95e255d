package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/dailystreak/models"
	"github.com/cppla/dailystreak/testutil"
	"github.com/cppla/dailystreak/utils"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTodayContent(t *testing.T) {
	db := testutil.NewDB(t)
	clock := testutil.NewClock(t, "2024-05-01")
	cal := NewCalendar(nil, clock.Now)
	user := testutil.CreateUser(t, db, "bob")
	testutil.ScheduleContent(t, db, "2024-05-01")

	content := NewContentService(db, cal, nil, nil, CalendarWindow{})
	checkIns := NewCheckInService(db, cal, nil, 0)
	ctx := context.Background()

	entry, err := content.TodayContent(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, entry.ContentItem)
	assert.Equal(t, "2024-05-01", entry.Date)
	assert.Equal(t, "Quote for 2024-05-01", entry.ContentItem.Title)
	assert.False(t, entry.HasCheckedIn)

	_, err = checkIns.RecordCheckIn(ctx, user.ID, CheckInInput{})
	require.NoError(t, err)

	entry, err = content.TodayContent(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, entry.HasCheckedIn)

	clock.Set("2024-05-02")
	entry, err = content.TodayContent(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, entry.ContentItem)
	assert.False(t, entry.HasCheckedIn)
}

func TestContentByDate(t *testing.T) {
	db := testutil.NewDB(t)
	cal := NewCalendar(nil, testutil.NewClock(t, "2024-05-10").Now)
	user := testutil.CreateUser(t, db, "bob")
	testutil.ScheduleContent(t, db, "2024-05-03")
	content := NewContentService(db, cal, nil, nil, CalendarWindow{})

	entry, err := content.ContentByDate(context.Background(), user.ID, "2024-05-03")
	require.NoError(t, err)
	require.NotNil(t, entry.ContentItem)
	assert.Equal(t, "2024-05-03", entry.ContentItem.Date)

	_, err = content.ContentByDate(context.Background(), user.ID, "May 3")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCalendarWindow(t *testing.T) {
	db := testutil.NewDB(t)
	clock := testutil.NewClock(t, "2024-01-03")
	cal := NewCalendar(nil, clock.Now)
	user := testutil.CreateUser(t, db, "carol")
	testutil.ScheduleContent(t, db, "2024-01-01", "2024-01-02", "2024-01-03", "2024-01-05")
	checkIns := NewCheckInService(db, cal, nil, 0)
	ctx := context.Background()

	clock.Set("2024-01-01")
	_, err := checkIns.RecordCheckIn(ctx, user.ID, CheckInInput{})
	require.NoError(t, err)
	clock.Set("2024-01-03")
	_, err = checkIns.RecordCheckIn(ctx, user.ID, CheckInInput{})
	require.NoError(t, err)

	content := NewContentService(db, cal, nil, nil, CalendarWindow{DefaultDays: 7, MaxDays: 365})
	days, err := content.Calendar(ctx, user.ID, 3)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, "2024-01-03", days[0].Date)
	assert.True(t, days[0].HasCheckedIn)
	assert.Equal(t, "2024-01-02", days[1].Date)
	assert.False(t, days[1].HasCheckedIn)
	require.NotNil(t, days[1].ContentItem)
	assert.Equal(t, "2024-01-01", days[2].Date)
	assert.True(t, days[2].HasCheckedIn)
	for _, d := range days {
		require.NotNil(t, d.ContentItem, d.Date)
		assert.Equal(t, d.Date, d.ContentItem.Date)
	}

	days, err = content.Calendar(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, days, 7)
	assert.Nil(t, days[6].ContentItem, "nothing scheduled on 2023-12-28")

	days, err = content.Calendar(ctx, user.ID, 10_000)
	require.NoError(t, err)
	assert.Len(t, days, 365)
}

func TestCalendarHidesInactiveContent(t *testing.T) {
	db := testutil.NewDB(t)
	cal := NewCalendar(nil, testutil.NewClock(t, "2024-01-02").Now)
	user := testutil.CreateUser(t, db, "dave")
	items := testutil.ScheduleContent(t, db, "2024-01-01", "2024-01-02")
	content := NewContentService(db, cal, nil, nil, CalendarWindow{})
	ctx := context.Background()

	require.NoError(t, content.DeactivateContent(ctx, items[0].ID))
	days, err := content.Calendar(ctx, user.ID, 2)
	require.NoError(t, err)
	assert.NotNil(t, days[0].ContentItem)
	assert.Nil(t, days[1].ContentItem)
}

func TestContentAdminLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	cal := NewCalendar(nil, testutil.NewClock(t, "2024-06-01").Now)
	content := NewContentService(db, cal, nil, nil, CalendarWindow{})
	ctx := context.Background()

	item, err := content.CreateContent(ctx, ContentInput{
		Date:        strPtr("2024-06-02"),
		ContentType: strPtr("Tip"),
		Title:       strPtr("  Drink <i>water</i> "),
		Message:     strPtr("<p>Eight glasses.</p><script>x()</script>"),
		MediaURL:    strPtr("https://example.com/water.png"),
		Category:    strPtr("health"),
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, models.ContentTip, item.ContentType)
	assert.Equal(t, "Drink water", item.Title)
	assert.Equal(t, "<p>Eight glasses.</p>", item.Message)
	assert.True(t, item.IsActive)

	_, err = content.CreateContent(ctx, ContentInput{
		Date: strPtr("2024-06-02"), ContentType: strPtr("quote"), Title: strPtr("x"), Message: strPtr("y"),
	})
	assert.ErrorIs(t, err, ErrDuplicateDate)

	updated, err := content.UpdateContent(ctx, item.ID, ContentInput{Title: strPtr("Hydrate"), IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Hydrate", updated.Title)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "2024-06-02", updated.Date)

	active, total, err := content.ListContent(ctx, 1, 10, false)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, active)

	all, total, err := content.ListContent(ctx, 1, 10, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, all, 1)

	_, err = content.UpdateContent(ctx, item.ID+1, ContentInput{Title: strPtr("nope")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, content.DeactivateContent(ctx, item.ID+1), ErrNotFound)
	assert.NoError(t, content.DeactivateContent(ctx, item.ID), "deactivating twice is fine")
}

func TestCreateContentValidation(t *testing.T) {
	db := testutil.NewDB(t)
	content := NewContentService(db, NewCalendar(nil, nil), nil, nil, CalendarWindow{})
	ctx := context.Background()

	valid := func() ContentInput {
		return ContentInput{
			Date: strPtr("2024-06-02"), ContentType: strPtr("quote"), Title: strPtr("t"), Message: strPtr("m"),
		}
	}
	cases := map[string]func(*ContentInput){
		"missing title": func(in *ContentInput) { in.Title = nil },
		"bad date":      func(in *ContentInput) { in.Date = strPtr("2024-06-31") },
		"unknown type":  func(in *ContentInput) { in.ContentType = strPtr("poem") },
		"blank title":   func(in *ContentInput) { in.Title = strPtr("<b></b>  ") },
		"empty message": func(in *ContentInput) { in.Message = strPtr("<script>x</script>") },
		"ftp media":     func(in *ContentInput) { in.MediaURL = strPtr("ftp://example.com/a") },
		"long category": func(in *ContentInput) {
			in.Category = strPtr(strings.Repeat("c", 65))
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid()
			mutate(&in)
			_, err := content.CreateContent(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidContent)
		})
	}
}

func TestContentCacheInvalidatedOnWrite(t *testing.T) {
	db := testutil.NewDB(t)
	rc, mr := testutil.NewRedis(t)
	cal := NewCalendar(nil, testutil.NewClock(t, "2024-07-01").Now)
	user := testutil.CreateUser(t, db, "erin")
	items := testutil.ScheduleContent(t, db, "2024-07-01")
	content := NewContentService(db, cal, utils.NewCache(rc, 0), nil, CalendarWindow{})
	ctx := context.Background()

	entry, err := content.TodayContent(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, entry.ContentItem)
	assert.True(t, mr.Exists(ContentCachePrefix+"date:2024-07-01"))

	// Served from cache even though the row changed behind the service's back.
	require.NoError(t, db.Model(&models.ContentItem{}).Where("id = ?", items[0].ID).Update("title", "changed").Error)
	entry, err = content.TodayContent(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quote for 2024-07-01", entry.ContentItem.Title)

	_, err = content.UpdateContent(ctx, items[0].ID, ContentInput{Title: strPtr("Fresh")})
	require.NoError(t, err)
	assert.False(t, mr.Exists(ContentCachePrefix+"date:2024-07-01"))

	entry, err = content.TodayContent(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", entry.ContentItem.Title)
}
