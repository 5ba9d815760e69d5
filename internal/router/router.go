// internal/router/router.go
package router

import (
	"context"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/javajoker/applied-api/internal/config"
	"github.com/javajoker/applied-api/internal/handlers"
	"github.com/javajoker/applied-api/internal/middleware"
	"github.com/javajoker/applied-api/internal/services"
)

// Initialize wires services, handlers and middleware onto a new engine.
// Background work started here (rate limiter cleanup) stops when ctx is done.
func Initialize(ctx context.Context, db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	eventLog := services.NewEventLog(db)
	applicationService := services.NewApplicationService(db, eventLog)

	// Initialize handlers
	applicationHandler := handlers.NewApplicationHandler(applicationService, eventLog)
	healthHandler := handlers.NewHealthHandler(db)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		go limiter.CleanupVisitors(ctx)
		r.Use(limiter.Middleware())
	}

	// Health check
	r.GET("/health", healthHandler.Live)
	r.GET("/health/ready", healthHandler.Ready)

	applications := r.Group("/applications")
	{
		applications.GET("", applicationHandler.ListApplications)
		applications.POST("", applicationHandler.CreateApplication)
		applications.GET("/:id", applicationHandler.GetApplication)
		applications.PATCH("/:id", applicationHandler.UpdateApplication)
		applications.DELETE("/:id", applicationHandler.DeleteApplication)
		applications.POST("/:id/status", applicationHandler.ChangeStatus)
		applications.GET("/:id/events", applicationHandler.ListEvents)
	}

	return r
}
