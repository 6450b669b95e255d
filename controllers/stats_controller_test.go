package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cppla/dailystreak/models"
	"github.com/cppla/dailystreak/services"
	"github.com/cppla/dailystreak/testutil"
	"github.com/cppla/dailystreak/utils"
)

func TestGetStatsLogsFailedQueriesAndSkipsCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.WarnLevel)
	prev := utils.Logger
	utils.Logger = zap.New(core)
	t.Cleanup(func() { utils.Logger = prev })

	db := testutil.NewDB(t)
	rc, mr := testutil.NewRedis(t)
	clock := testutil.NewClock(t, "2024-04-01")
	cal := services.NewCalendar(nil, clock.Now)
	user := testutil.CreateUser(t, db, "alice")
	testutil.ScheduleContent(t, db, "2024-04-01")
	_, err := services.NewCheckInService(db, cal, nil, 0).RecordCheckIn(context.Background(), user.ID, services.CheckInInput{})
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&models.StreakState{}))

	r := gin.New()
	r.GET("/stats", NewStatsController(db, cal, utils.NewCache(rc, 0)).GetStats)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data CommunityStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body.Data.TotalCheckIns)
	assert.EqualValues(t, 1, body.Data.TodayCheckIns)
	assert.Zero(t, body.Data.ActiveStreaks)
	assert.Empty(t, body.Data.TopStreaks)

	failed := logs.FilterMessage("stats query failed").All()
	require.Len(t, failed, 2)
	assert.Equal(t, "active_streaks", failed[0].ContextMap()["query"])
	assert.Equal(t, "top_streaks", failed[1].ContextMap()["query"])
	assert.False(t, mr.Exists(statsCacheKey))
}
