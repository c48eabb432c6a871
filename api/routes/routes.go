package routes

import (
	"example.com/dosepoint/services/device/api/handlers"
	"example.com/dosepoint/services/device/api/middleware"
	"example.com/dosepoint/services/device/internal/models"
	"example.com/dosepoint/services/device/internal/repository"
	"example.com/dosepoint/services/device/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, svc service.Service, repo repository.Repository, log *logrus.Logger) {
	// Health check
	r.GET("/health", handlers.HealthCheck)

	// API routes
	api := r.Group("/api/v1")

	// Press ingress: the button gateway authenticates with its own key level
	pressHandler := handlers.NewPressHandler(svc, log)
	api.POST("/devices/press",
		middleware.APIKeyAuth(repo, log, models.DeviceGatewayAuthLevel),
		pressHandler.HandlePress)

	// Device fleet routes
	deviceHandler := handlers.NewDeviceHandler(svc, log)
	devices := api.Group("/devices", middleware.APIKeyAuth(repo, log, models.WriterAuthLevel))
	{
		devices.POST("", deviceHandler.RegisterDevice)
		devices.GET("", deviceHandler.ListDevices)
		devices.GET("/:id", deviceHandler.GetDevice)
		devices.PATCH("/:id/status", deviceHandler.UpdateDeviceStatus)
		devices.POST("/:id/assign", deviceHandler.AssignUser)
		devices.DELETE("/:id/assign", deviceHandler.UnassignUser)
		devices.POST("/:id/ship", deviceHandler.ShipDevice)

		// Logs
		devices.GET("/:id/activity", deviceHandler.GetDeviceActivity)
		devices.GET("/serial/:serial/clicks", deviceHandler.GetDeviceClicks)
	}

	// User routes
	userHandler := handlers.NewUserHandler(svc, log)
	users := api.Group("/users", middleware.APIKeyAuth(repo, log, models.WriterAuthLevel))
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.GET("/:id/stories", userHandler.GetUserStories)
	}

	// Diagnostics for operators
	errorHandler := handlers.NewErrorLogHandler(svc, log)
	api.GET("/errors",
		middleware.APIKeyAuth(repo, log, models.ViewerAuthLevel),
		errorHandler.ListErrors)
}
