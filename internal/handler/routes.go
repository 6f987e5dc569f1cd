package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/muhammedkisla/deryailetisim/internal/middleware"
)

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health    *HealthHandler
	Heartbeat *HeartbeatHandler
	PriceList *PriceListHandler
	Phone     *PhoneHandler
	Campaign  *CampaignHandler
	Auth      *AuthHandler
}

// SetupRoutes registers all routes.
func SetupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)
	router.GET("/api/heartbeat", handlers.Heartbeat.Beat)

	// Public price list
	priceList := router.Group("/v1/price-list")
	{
		priceList.GET("", handlers.PriceList.Get)
		priceList.POST("/refresh", handlers.PriceList.Refresh)
		priceList.GET("/stream", handlers.PriceList.Stream)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.POST("/auth/password/reset", handlers.Auth.RequestPasswordReset)
	admin.POST("/auth/callback", handlers.Auth.Callback)
	admin.PUT("/auth/password", jwtMiddleware.AllowRecovery(), handlers.Auth.UpdatePassword)
	admin.Use(jwtMiddleware.Handle())
	{
		// Session
		admin.GET("/auth/session", handlers.Auth.Session)
		admin.POST("/auth/logout", handlers.Auth.Logout)

		// Phone Management
		admin.GET("/phones", handlers.Phone.List)
		admin.POST("/phones", handlers.Phone.Create)
		admin.PUT("/phones/:id", handlers.Phone.Update)
		admin.DELETE("/phones/:id", handlers.Phone.Delete)

		// Edit form
		admin.POST("/phones/:id/edit", handlers.Phone.OpenEdit)
		admin.GET("/edit", handlers.Phone.CurrentEdit)
		admin.DELETE("/edit", handlers.Phone.CancelEdit)

		// Installment campaigns
		admin.GET("/campaigns", handlers.Campaign.List)
		admin.POST("/campaigns", handlers.Campaign.Create)
		admin.PUT("/campaigns/:id", handlers.Campaign.Update)
		admin.DELETE("/campaigns/:id", handlers.Campaign.Delete)

		// Live updates
		admin.GET("/stream", handlers.Phone.Stream)
	}
}
