// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"donation_share_backend/internal/config"
	"donation_share_backend/internal/jobs"
	"donation_share_backend/internal/middleware"
	"donation_share_backend/internal/notification"
	"donation_share_backend/internal/product"
	"donation_share_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Handlers
	userHandler         *user.Handler
	productHandler      *product.Handler
	notificationHandler *notification.Handler

	// Jobs
	sweeperJob *jobs.SweeperJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	userHandler *user.Handler,
	productHandler *product.Handler,
	notificationHandler *notification.Handler,
	sweeperJob *jobs.SweeperJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.Identity())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader, "X-User-ID", "X-Admin-Token"}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	identityMW := middleware.RequireIdentity()
	adminMW := middleware.AdminAuth(cfg, logger.Named("AdminAuth"))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Donation Share API is healthy!"})
	})

	// Stored images are served straight from disk under their public base URL.
	router.Static(cfg.ImagePublicBaseURL, cfg.ImageStoragePath)

	v1 := router.Group("/api/v1")
	userHandler.RegisterRoutes(v1)
	productHandler.RegisterRoutes(v1, identityMW, adminMW)
	notificationHandler.RegisterRoutes(v1, identityMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:          httpServer,
		router:              router,
		cfg:                 cfg,
		logger:              logger,
		userHandler:         userHandler,
		productHandler:      productHandler,
		notificationHandler: notificationHandler,
		sweeperJob:          sweeperJob,
	}, nil
}

func (s *Server) Start() error {
	if s.sweeperJob != nil {
		if err := s.sweeperJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start sweeper job", zap.Error(err))
		}
	} else {
		s.logger.Info("Sweeper job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.sweeperJob != nil {
		s.sweeperJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
