package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/dailystreak/services"
	"github.com/cppla/dailystreak/utils"
)

// CheckInController handles daily check-in, streak and history endpoints.
type CheckInController struct {
	checkIns *services.CheckInService
}

// NewCheckInController creates a new controller instance.
func NewCheckInController(checkIns *services.CheckInService) *CheckInController {
	return &CheckInController{checkIns: checkIns}
}

// DailyCheckIn records today's (or a backfilled date's) check-in. Repeats are
// answered with the stored check-in and already_checked_in=true.
func (c *CheckInController) DailyCheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Date      string `json:"date"`
		Notes     string `json:"notes" binding:"max=2000"`
		Completed bool   `json:"completed"`
	}
	// An empty body is a plain "check me in for today".
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid request payload")
		return
	}

	receipt, err := c.checkIns.RecordCheckIn(ctx.Request.Context(), userID, services.CheckInInput{
		Date:      req.Date,
		Notes:     req.Notes,
		Completed: req.Completed,
	})
	if err != nil {
		respondServiceError(ctx, err, 50070, "failed to record check-in")
		return
	}

	if receipt.AlreadyCheckedIn {
		utils.Respond(ctx, http.StatusOK, 0, "already checked in", receipt)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "check-in successful", receipt)
}

// Streak returns the caller's streak state.
func (c *CheckInController) Streak(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	state, err := c.checkIns.Streak(ctx.Request.Context(), userID)
	if err != nil {
		respondServiceError(ctx, err, 50071, "failed to load streak")
		return
	}
	utils.Success(ctx, state)
}

// History lists the caller's past check-ins, newest first.
func (c *CheckInController) History(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	limit, offset := services.ClampWindow(queryInt(ctx, "limit", 0), queryInt(ctx, "offset", 0))
	items, total, err := c.checkIns.History(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(ctx, err, 50072, "failed to load check-in history")
		return
	}
	utils.Paginated(ctx, items, total, limit, offset)
}
