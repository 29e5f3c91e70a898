package router

import (
	"net/http"

	"clickboard/app/handler"
	"clickboard/app/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router Router
type Router struct {
	characterHandler   *handler.CharacterHandler
	leaderboardHandler *handler.LeaderboardHandler
	schedulerHandler   *handler.SchedulerHandler
	socketHandler      *handler.SocketHandler
	healthHandler      *handler.HealthHandler
	apiKey             string
}

// NewRouter creates a new Router
func NewRouter(characterHandler *handler.CharacterHandler, leaderboardHandler *handler.LeaderboardHandler, schedulerHandler *handler.SchedulerHandler, socketHandler *handler.SocketHandler, healthHandler *handler.HealthHandler, apiKey string) *Router {
	return &Router{
		characterHandler:   characterHandler,
		leaderboardHandler: leaderboardHandler,
		schedulerHandler:   schedulerHandler,
		socketHandler:      socketHandler,
		healthHandler:      healthHandler,
		apiKey:             apiKey,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	admin := middleware.AdminAuth(r.apiKey)

	characters := engine.Group("/characters")
	{
		characters.GET("", r.characterHandler.ListCharacters)
		characters.GET("/stats", r.characterHandler.GetStats)
		characters.GET("/character-points", r.characterHandler.CharacterPoints)
		characters.POST("/batch-update", r.characterHandler.BatchUpdate)
		characters.PATCH("/:id", r.characterHandler.UpdatePoints)
		characters.POST("", admin, r.characterHandler.CreateCharacter)
	}

	engine.GET("/leaderboard/:type", r.leaderboardHandler.GetLeaderboard)

	// WebSocket broadcast stream
	if r.socketHandler != nil {
		engine.GET("/socket", r.socketHandler.Connect)
	}

	api := engine.Group("/api/v1")
	{
		sched := api.Group("/scheduler")
		{
			sched.GET("/status", r.schedulerHandler.GetStatus)
			sched.POST("/trigger", admin, r.schedulerHandler.Trigger)
		}
	}

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	if r.healthHandler != nil {
		engine.GET("/health", r.healthHandler.Health)
	} else {
		engine.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
}
