package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/dailystreak/config"
	"github.com/cppla/dailystreak/controllers"
	"github.com/cppla/dailystreak/middleware"
	"github.com/cppla/dailystreak/services"
	"github.com/cppla/dailystreak/utils"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Config   config.AppConfig
	DB       *gorm.DB
	Cache    *utils.Cache
	Calendar *services.Calendar
	CheckIns *services.CheckInService
	Content  *services.ContentService
	Logger   *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file when configured, else to the app logger.
	accessLog := deps.Logger
	if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
		accessLog = gl
	}
	if accessLog == nil {
		accessLog = zap.NewNop()
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// Wildcard origins cannot be combined with credentials.
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	checkInController := controllers.NewCheckInController(deps.CheckIns)
	contentController := controllers.NewContentController(deps.Content)
	statsController := controllers.NewStatsController(deps.DB, deps.Calendar, deps.Cache)

	api := r.Group("/api/v1")
	api.GET("/stats", statsController.GetStats)

	daily := api.Group("/daily")
	daily.Use(middleware.AuthRequired(cfg.JWTSecret))
	daily.GET("/today", contentController.Today)
	daily.GET("/content/:date", contentController.ByDate)
	daily.GET("/calendar", contentController.Calendar)
	daily.GET("/streak", checkInController.Streak)
	daily.GET("/history", checkInController.History)
	daily.POST("/check-in", middleware.RateLimit(cfg.RateLimitPerMinute), checkInController.DailyCheckIn)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(cfg.JWTSecret), middleware.AdminRequired(cfg.AdminUsernames), middleware.RateLimit(cfg.RateLimitPerMinute))
	admin.GET("/content", contentController.List)
	admin.POST("/content", contentController.Create)
	admin.PATCH("/content/:id", contentController.Update)
	admin.DELETE("/content/:id", contentController.Deactivate)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
