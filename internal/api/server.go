package api

import (
	"fmt"
	"net/http"

	"stagedoor/internal/auth"
	"stagedoor/internal/cache"
	"stagedoor/internal/config"
	"stagedoor/internal/database"
	"stagedoor/internal/external"
	"stagedoor/internal/handlers"
	"stagedoor/internal/logger"
	"stagedoor/internal/messaging"
	"stagedoor/internal/metrics"
	"stagedoor/internal/middleware"
	"stagedoor/internal/repository"
	"stagedoor/internal/search"
	"stagedoor/internal/service"
	"stagedoor/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the administration API.
type Server struct {
	router *gin.Engine
	config *config.Config
	db     *database.DB
	nats   *messaging.NATSClient
	redis  *cache.Client
	es     *search.Client
}

// NewServer wires the full dependency graph and configures routes.
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	redisClient, err := cache.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	esClient, err := search.NewClient(cfg.Elasticsearch)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	storageClient := external.NewStorageClient(cfg.Storage)
	mailerClient := external.NewMailerClient(cfg.Mailer)

	repos := repository.NewRepositories(db)
	m := metrics.New()

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	resolver := auth.NewResolver(repos.Admins, repos.Users, redisClient)
	authService := auth.NewService(repos.Users, repos.Admins, redisClient, resolver, tokens, mailerClient, cfg.PublicURL, cfg.Auth.BcryptCost)

	adminService := service.NewAdminService(repos.Admins, repos.Users, redisClient, mailerClient, natsClient, cfg.PublicURL, cfg.Auth.BcryptCost)

	venueFlows := workflow.NewVenueWorkflows(repos.Venues, repos.Users, repos.Admins, adminService, redisClient, natsClient, m)
	eventFlows := workflow.NewEventWorkflows(repos.Events, repos.Tickets, repos.Venues, storageClient, natsClient, m)

	eventService := service.NewEventService(repos.Events, esClient)
	ticketService := service.NewTicketService(repos.Tickets, repos.Events, natsClient)
	venueService := service.NewVenueService(repos.Venues, repos.Users)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics(m))
	router.Use(middleware.Logger())

	server := &Server{
		router: router,
		config: cfg,
		db:     db,
		nats:   natsClient,
		redis:  redisClient,
		es:     esClient,
	}

	h := handlers.NewHandlers(authService, tokens, eventService, ticketService, adminService, venueService, venueFlows, eventFlows)
	server.setupRoutes(h, tokens, resolver)

	return server, nil
}

func (s *Server) setupRoutes(h *handlers.Handlers, tokens *auth.TokenIssuer, resolver *auth.Resolver) {
	api := s.router.Group("/api")

	// Open endpoints.
	api.POST("/auth/login", h.Login)
	api.POST("/auth/reset", h.RequestPasswordReset)

	// Everything else requires a live session.
	authed := api.Group("")
	authed.Use(middleware.Auth(tokens, s.redis, resolver))
	{
		authed.POST("/setup/first-admin", h.SetupFirstAdmin)
		authed.POST("/auth/logout", h.Logout)
		authed.GET("/auth/me", h.Me)
		authed.POST("/auth/password", h.ChangePassword)

		venues := authed.Group("/venues")
		{
			venues.GET("", h.ListVenues)
			venues.POST("", h.CreateVenue)
			venues.GET("/roles", h.ListVenueRoles)
			venues.GET("/:id", h.GetVenue)
			venues.DELETE("/:id", h.DeleteVenue)
			venues.POST("/:id/admins", h.AddVenueAdmin)
			venues.DELETE("/:id/admins", h.RemoveVenueAdmin)
		}

		events := authed.Group("/events")
		{
			events.GET("", h.ListEvents)
			events.POST("", h.SaveEvent)
			events.GET("/search", h.SearchEvents)
			events.GET("/:id", h.GetEvent)
			events.DELETE("/:id", h.DeleteEvent)
			events.PATCH("/:id/featured", h.SetEventFeatured)
		}

		tickets := authed.Group("/tickets")
		{
			tickets.GET("", h.ListTickets)
			tickets.GET("/grouped", h.ListTicketsGrouped)
			tickets.GET("/stats", h.TicketStats)
			tickets.POST("/used", h.MarkTicketUsed)
		}

		admins := authed.Group("/admins")
		{
			admins.GET("", h.ListAdmins)
			admins.POST("", h.CreateAdmin)
			admins.PATCH("/:id", h.UpdateAdmin)
			admins.DELETE("/:id", h.DeleteAdmin)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "stagedoor-api",
		"version": "1.0.0",
	})
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes the connections.
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Error("Error closing NATS connection", "error", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Get().Error("Error closing Redis connection", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}
	return nil
}
