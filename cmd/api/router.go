package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"market-api/internal/shared/middleware"
	"market-api/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// ClientIP() là key của rate limiter nên chỉ tin header từ proxy đã khai báo
	if err := router.SetTrustedProxies(c.Config.App.TrustedProxies); err != nil {
		log.Warn().Err(err).Msg("invalid TRUSTED_PROXIES, trusting none")
		_ = router.SetTrustedProxies(nil)
	}

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.CORS.AllowedOrigins),
		middleware.Metrics(),
	)

	router.GET("/health", healthCheckHandler(c.Config.App.Name, c))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		setupAuthRoutes(api, c)
		setupListingRoutes(api, c)
		setupUploadRoutes(api, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(api *gin.RouterGroup, c *container.Container) {
	auth := api.Group("/auth", middleware.RateLimit(c.AuthLimiter))
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
	}
}

// ========================================
// LISTING ROUTES
// ========================================
// Đọc công khai; ghi cần đăng nhập, ownership được kiểm tra trong câu lệnh update/delete
func setupListingRoutes(api *gin.RouterGroup, c *container.Container) {
	listings := api.Group("/listings")
	{
		listings.GET("", c.ListingHandler.ListListings)
		listings.GET("/:id", c.ListingHandler.GetListing)

		protected := listings.Group("", middleware.AuthMiddleware(c.JWTManager))
		{
			protected.POST("", c.ListingHandler.CreateListing)
			protected.PUT("/:id", c.ListingHandler.UpdateListing)
			protected.DELETE("/:id", c.ListingHandler.DeleteListing)
		}
	}
}

// ========================================
// UPLOAD ROUTES
// ========================================
func setupUploadRoutes(api *gin.RouterGroup, c *container.Container) {
	s3 := api.Group("/s3", middleware.AuthMiddleware(c.JWTManager))
	{
		s3.POST("/presign", c.UploadHandler.Presign)
		s3.POST("/view-url", c.UploadHandler.ViewURL)
		s3.POST("/list", c.UploadHandler.List)
		s3.POST("/clear", c.UploadHandler.Clear)
		s3.POST("/delete", c.UploadHandler.Delete)
		s3.GET("/proxy-image", c.UploadHandler.ProxyImage)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================

// storeChecker - *container.Container implement interface này
type storeChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthCheckHandler: {ok, service, ts}; 503 + ok=false khi store không ping được
func healthCheckHandler(service string, store storeChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		statusCode := http.StatusOK
		ok := true
		if err := store.HealthCheck(ctx); err != nil {
			log.Warn().Err(err).Msg("health check: store unreachable")
			statusCode = http.StatusServiceUnavailable
			ok = false
		}

		c.JSON(statusCode, gin.H{
			"ok":      ok,
			"service": service,
			"ts":      time.Now().UTC().Format(time.RFC3339),
		})
	}
}
