package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/OldStager01/fleet-value-engine/api/handlers"
	"github.com/OldStager01/fleet-value-engine/api/middleware"
	"github.com/OldStager01/fleet-value-engine/api/websocket"
	"github.com/OldStager01/fleet-value-engine/internal/auth"
	"github.com/OldStager01/fleet-value-engine/pkg/config"
	"github.com/OldStager01/fleet-value-engine/pkg/database"
	"github.com/OldStager01/fleet-value-engine/pkg/database/queries"
	"github.com/gin-gonic/gin"
)

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      *config.Config
	db          *database.DB
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
	runManager  handlers.RunManager
}

func NewServer(cfg *config.Config, db *database.DB, runManager handlers.RunManager) *Server {
	if cfg.API.JWTSecret == "" || cfg.API.JWTSecret == "change-me-in-production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	authService := auth.NewService(cfg.API.JWTSecret, cfg.API.JWTDuration)
	wsHub := websocket.NewHub(&cfg.WebSocket)

	s := &Server{
		router:      router,
		config:      cfg,
		db:          db,
		authService: authService,
		wsHub:       wsHub,
		runManager:  runManager,
	}

	s.setupMiddleware()
	s.setupRoutes()

	// Start WebSocket hub
	go wsHub.Run()

	// Start event bridge to forward engine events to WebSocket clients
	if runManager != nil {
		eventsChan := runManager.SubscribeAllEvents()
		s.wsBridge = websocket.NewEventBridge(wsHub, eventsChan)
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestSizeLimit(1 << 20))

	rateLimiter := middleware.NewRateLimiter(s.config.API.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))

	// Run triggers execute a full pipeline synchronously; throttle them
	// tighter than the global limit.
	endpointLimiter := middleware.NewEndpointRateLimiter()
	endpointLimiter.AddEndpoint("/runs", 10, time.Minute)
	s.router.Use(endpointLimiter.Middleware())
}

func (s *Server) setupRoutes() {
	// Repositories
	userRepo := queries.NewUserRepository(s.db.DB)
	fleetRepo := queries.NewFleetRepository(s.db.DB)
	resultRepo := queries.NewResultRepository(s.db.DB)
	eventRepo := queries.NewEventRepository(s.db.DB)

	// Handlers
	healthHandler := handlers.NewHealthHandler(s.db)
	authHandler := handlers.NewAuthHandler(userRepo, s.authService)
	fleetHandler := handlers.NewFleetHandler(fleetRepo)
	runHandler := handlers.NewRunHandler(resultRepo, s.runManager, s.config)
	resultHandler := handlers.NewResultHandler(resultRepo, eventRepo)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	// Auth routes, behind the stricter per-IP limiter
	s.router.POST("/auth/login", middleware.AuthRateLimiter(), authHandler.Login)

	// WebSocket route
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	// Protected routes
	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	{
		// Fleet
		protected.GET("/assets", fleetHandler.ListAssets)
		protected.GET("/assets/:id", fleetHandler.GetAsset)
		protected.GET("/hierarchy", fleetHandler.Hierarchy)

		// Runs
		protected.POST("/runs", runHandler.Trigger)
		protected.GET("/runs", runHandler.List)
		protected.GET("/runs/:id", runHandler.Get)
		protected.GET("/models/:name/runs/current", runHandler.Current)

		// Run outputs
		protected.GET("/runs/:id/episodes", resultHandler.Episodes)
		protected.GET("/runs/:id/rollups", resultHandler.Rollups)
		protected.GET("/runs/:id/values", resultHandler.Values)
		protected.GET("/runs/:id/curve", resultHandler.Curve)

		// Events
		protected.GET("/events/recent", resultHandler.RecentEvents)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.API.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.API.ReadTimeout,
		WriteTimeout: s.config.API.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the event bridge first
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
