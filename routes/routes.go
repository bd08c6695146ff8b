package routes

import (
	"strings"
	"time"

	"sebasongjog/config"
	"sebasongjog/handlers"
	"sebasongjog/middleware"
	"sebasongjog/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Setup wires the full route table. Reads are public; mutations go through
// the auth middleware, which only enforces tokens when REQUIRE_AUTH is set.
func Setup(h *handlers.Handler, hub *websocket.Hub, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", func(c *gin.Context) {
		c.String(200, "Server is running")
	})
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	if hub != nil {
		wsHandler := websocket.Handler(hub)
		router.GET("/ws", func(c *gin.Context) {
			wsHandler(c.Writer, c.Request)
		})
	}

	api := router.Group("/api")
	api.Use(middleware.RateLimit(60, time.Minute))

	// Public surface.
	api.POST("/users", h.UpsertUser)
	api.GET("/users/uid/:uid", h.GetUserByUID)
	api.GET("/users/:uid", h.GetUserByID)
	api.GET("/users/:uid/my-events", h.GetMyEvents)
	api.GET("/users/:uid/joined-events", h.GetJoinedEvents)

	api.GET("/events", h.ListEvents)
	api.GET("/events/public", h.ListPublicEvents)
	api.GET("/events/id/:eventId", h.GetEventByEventID)
	api.GET("/events/:eventId", h.GetEventByID)
	api.GET("/events/:eventId/volunteers", h.ListVolunteers)

	api.GET("/vapid-public-key", h.GetVapidPublicKey)

	// Mutations.
	protected := api.Group("")
	protected.Use(middleware.Auth(cfg.JWTSecret, cfg.RequireAuth))

	protected.PUT("/users/:uid", h.UpdateProfile)
	protected.POST("/users/:uid/my-events", h.AddMyEvent)
	protected.POST("/users/:uid/joined-events", h.AddJoinedEvent)
	protected.DELETE("/users/:uid/my-events/:eventId", h.RemoveMyEvent)
	protected.DELETE("/users/:uid/joined-events/:eventId", h.RemoveJoinedEvent)

	protected.POST("/events", h.CreateEvent)
	protected.PUT("/events/id/:eventId", h.UpdateEventByEventID)
	protected.PUT("/events/:eventId", h.UpdateEventByID)
	protected.DELETE("/events/id/:eventId", h.DeleteEventByEventID)
	protected.DELETE("/events/:eventId", h.DeleteEventByID)

	protected.POST("/events/:eventId/join", h.JoinEvent)
	protected.POST("/events/:eventId/leave", h.LeaveEvent)
	protected.POST("/events/:eventId/images", h.UploadEventImage)

	protected.POST("/subscribe", h.SubscribePush)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(404, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.String(404, "not found")
	})

	return router
}
