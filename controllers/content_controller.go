package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/dailystreak/services"
	"github.com/cppla/dailystreak/utils"
)

// ContentController serves the daily content calendar and its admin endpoints.
type ContentController struct {
	content *services.ContentService
}

// NewContentController creates a new ContentController instance.
func NewContentController(content *services.ContentService) *ContentController {
	return &ContentController{content: content}
}

// Today returns today's content and whether the caller already checked in.
func (c *ContentController) Today(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	entry, err := c.content.TodayContent(ctx.Request.Context(), userID)
	if err != nil {
		respondServiceError(ctx, err, 50060, "failed to load today's content")
		return
	}
	utils.Success(ctx, entry)
}

// ByDate returns the content scheduled for :date.
func (c *ContentController) ByDate(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	entry, err := c.content.ContentByDate(ctx.Request.Context(), userID, ctx.Param("date"))
	if err != nil {
		respondServiceError(ctx, err, 50061, "failed to load content")
		return
	}
	utils.Success(ctx, entry)
}

// Calendar returns the last ?days days with check-in status.
func (c *ContentController) Calendar(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	entries, err := c.content.Calendar(ctx.Request.Context(), userID, queryInt(ctx, "days", 0))
	if err != nil {
		respondServiceError(ctx, err, 50062, "failed to load calendar")
		return
	}
	utils.Success(ctx, gin.H{"days": entries})
}

// List returns calendar items for admins; ?all=true includes inactive ones.
func (c *ContentController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	includeInactive := ctx.Query("all") == "true"

	items, total, err := c.content.ListContent(ctx.Request.Context(), page, pageSize, includeInactive)
	if err != nil {
		respondServiceError(ctx, err, 50063, "failed to list content")
		return
	}
	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// Create schedules a new content item.
func (c *ContentController) Create(ctx *gin.Context) {
	var req services.ContentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40062, "invalid request payload")
		return
	}
	item, err := c.content.CreateContent(ctx.Request.Context(), req)
	if err != nil {
		respondServiceError(ctx, err, 50064, "failed to create content")
		return
	}
	utils.Created(ctx, item)
}

// Update patches an existing content item.
func (c *ContentController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	var req services.ContentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40062, "invalid request payload")
		return
	}
	item, err := c.content.UpdateContent(ctx.Request.Context(), id, req)
	if err != nil {
		respondServiceError(ctx, err, 50065, "failed to update content")
		return
	}
	utils.Success(ctx, item)
}

// Deactivate soft-disables a content item.
func (c *ContentController) Deactivate(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	if err := c.content.DeactivateContent(ctx.Request.Context(), id); err != nil {
		respondServiceError(ctx, err, 50066, "failed to deactivate content")
		return
	}
	utils.Success(ctx, gin.H{"id": id, "is_active": false})
}

func parseID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid content id")
		return 0, false
	}
	return uint(id), true
}
