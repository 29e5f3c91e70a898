package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"clickboard/app/handler"
	"clickboard/app/router"
	"clickboard/internal/model"
	"clickboard/internal/scheduler"
	"clickboard/internal/service"
	"clickboard/pkg/broadcast"
	"clickboard/pkg/config"
	"clickboard/pkg/lock"
	"clickboard/pkg/logger"
	mysqlstore "clickboard/pkg/store/mysql"
	redisstore "clickboard/pkg/store/redis"

	"github.com/gin-gonic/gin"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		logger.InfoCtx(app.ctx, "Logging system has been closed")
		logger.Sync()
	})
	return nil
}

// initMySQL initializes MySQL and migrates the schema
func (app *Application) initMySQL() error {
	repo, err := mysqlstore.NewRepository(mysqlstore.DSN(app.config.MySQL))
	if err != nil {
		return err
	}
	app.mysqlRepo = repo
	app.registerCleanup(func() {
		repo.Close()
		logger.InfoCtx(app.ctx, "MySQL connection has been closed")
	})

	ctx, cancel := context.WithTimeout(app.ctx, 30*time.Second)
	defer cancel()
	return repo.GetDatastore().AutoMigrate(ctx)
}

// initRedis initializes Redis
func (app *Application) initRedis() error {
	client, err := redisstore.NewRedisClient(app.config)
	if err != nil {
		return err
	}

	app.redisClient = client
	app.cacheRepo = redisstore.NewCacheRepository(client, app.config.Cache.CharactersTTL, app.config.Cache.LeaderboardTTL)
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})

	return nil
}

// initHub initializes the WebSocket broadcast hub
func (app *Application) initHub() error {
	app.hub = broadcast.NewHub()
	return nil
}

// initServices initializes service layer
func (app *Application) initServices() error {
	app.characterService = service.NewCharacterService(
		app.mysqlRepo.Character,
		app.mysqlRepo.Points,
		app.mysqlRepo.GetDatastore(),
		app.cacheRepo,
		app.hub,
	)
	app.leaderboardService = service.NewLeaderboardService(
		app.mysqlRepo.Character,
		app.mysqlRepo.Points,
		app.cacheRepo,
	)
	return nil
}

// initScheduler builds the entity catalog and the synthetic engagement scheduler
func (app *Application) initScheduler() error {
	cfg := app.config.Scheduler

	app.catalog = scheduler.NewCatalog(app.characterService, cfg.CatalogStaleness, cfg.CallTimeout, nil)
	if err := app.catalog.Refresh(app.ctx); err != nil {
		// not fatal: the first cycle retries
		logger.WarnCtx(app.ctx, "Initial catalog load failed: %v", err)
	}

	if !cfg.Enabled {
		logger.InfoCtx(app.ctx, "Synthetic engagement scheduler disabled")
		return nil
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	generator := scheduler.NewGenerator(scheduler.GeneratorConfig{
		Regions:               model.PopularRegions(),
		MinRegions:            cfg.MinRegions,
		MaxRegions:            cfg.MaxRegions,
		MinEntities:           cfg.MinEntities,
		MaxEntities:           cfg.MaxEntities,
		MinClicks:             cfg.MinClicks,
		MaxClicks:             cfg.MaxClicks,
		PositiveDrawThreshold: cfg.PositiveDrawThreshold,
	}, seed)
	logger.InfoCtx(app.ctx, "Scenario generator seeded with %d, P(positive)=%.3f", seed, generator.PositiveProbability())

	options := []scheduler.Option{scheduler.WithStatsProvider(app.characterService)}
	if cfg.DistributedLock {
		options = append(options, scheduler.WithCycleLock(
			lock.New(app.redisClient.GetClient(), "scheduler:cycle-lock", lock.WithMaxHold(cfg.CyclePeriod+cfg.Window)),
		))
	}

	app.scheduler = scheduler.New(scheduler.Options{
		CyclePeriod:  cfg.CyclePeriod,
		TickInterval: cfg.TickInterval,
		Window:       cfg.Window,
		CallTimeout:  cfg.CallTimeout,
	}, app.catalog, generator, app.characterService, app.hub, options...)
	return nil
}

// initHandlers initializes handler layer
func (app *Application) initHandlers() error {
	app.characterHandler = handler.NewCharacterHandler(app.characterService)
	app.leaderboardHandler = handler.NewLeaderboardHandler(app.leaderboardService)
	app.socketHandler = handler.NewSocketHandler(app.hub)
	app.healthHandler = handler.NewHealthHandler(map[string]handler.Pinger{
		"mysql": app.mysqlRepo.GetDatastore(),
		"redis": app.redisClient,
	}, app.hub)

	app.schedulerHandler = handler.NewSchedulerHandler(nil)
	if app.scheduler != nil {
		app.schedulerHandler = handler.NewSchedulerHandler(app.scheduler)
	}
	return nil
}

// initHTTPServer initializes HTTP server
func (app *Application) initHTTPServer() error {
	gin.SetMode(app.config.Server.Mode)
	app.ginEngine = gin.New()

	r := router.NewRouter(
		app.characterHandler,
		app.leaderboardHandler,
		app.schedulerHandler,
		app.socketHandler,
		app.healthHandler,
		app.config.Server.APIKey,
	)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}
