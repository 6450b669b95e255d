package main

import (
	"go.uber.org/zap"

	"github.com/cppla/dailystreak/config"
	"github.com/cppla/dailystreak/routes"
	"github.com/cppla/dailystreak/services"
	"github.com/cppla/dailystreak/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		utils.Sugar.Fatalf("database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		utils.Sugar.Fatalf("migrate: %v", err)
	}

	cache := utils.NewCache(utils.NewRedis(cfg), cfg.CacheTTL())
	calendar := services.NewCalendar(cfg.Location(), nil)

	r := routes.SetupRouter(routes.Dependencies{
		Config:   cfg,
		DB:       db,
		Cache:    cache,
		Calendar: calendar,
		CheckIns: services.NewCheckInService(db, calendar, utils.Logger.Named("checkin"), cfg.BackfillDays),
		Content: services.NewContentService(db, calendar, cache, utils.Logger.Named("content"), services.CalendarWindow{
			DefaultDays: cfg.CalendarDefaultDays,
			MaxDays:     cfg.CalendarMaxDays,
		}),
		Logger: utils.Logger,
	})

	utils.Logger.Info("starting server",
		zap.String("port", cfg.AppPort),
		zap.String("timezone", cfg.Timezone),
		zap.String("db_driver", cfg.DBDriver),
	)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
