package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/dailystreak/middleware"
	"github.com/cppla/dailystreak/services"
	"github.com/cppla/dailystreak/utils"
)

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

// queryInt parses an integer query parameter, returning def when absent or malformed.
func queryInt(ctx *gin.Context, key string, def int) int {
	if n, err := strconv.Atoi(ctx.Query(key)); err == nil {
		return n
	}
	return def
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

// respondServiceError maps service sentinels to HTTP responses; anything else is a 500 with code.
func respondServiceError(ctx *gin.Context, err error, code int, message string) {
	switch {
	case errors.Is(err, services.ErrInvalidDate):
		utils.Error(ctx, http.StatusBadRequest, 40060, err.Error())
	case errors.Is(err, services.ErrInvalidContent):
		utils.Error(ctx, http.StatusBadRequest, 40061, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40460, err.Error())
	case errors.Is(err, services.ErrDuplicateDate):
		utils.Error(ctx, http.StatusConflict, 40960, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40961, "check-in in progress, please retry")
	default:
		_ = ctx.Error(err)
		utils.Error(ctx, http.StatusInternalServerError, code, message)
	}
}
