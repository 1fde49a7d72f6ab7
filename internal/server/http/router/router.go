package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/fueldrop/fueldrop/internal/dispatch"
	"github.com/fueldrop/fueldrop/internal/server/http/handlers"
	"github.com/fueldrop/fueldrop/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.DeliveryFacade, authenticator middleware.Authenticator, broadcaster dispatch.Broadcaster, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	orderHandler := handlers.NewOrderHandler(facade)
	paymentHandler := handlers.NewPaymentHandler(facade)
	driverHandler := handlers.NewDriverHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade)
	streamHandler := handlers.NewStreamHandler(broadcaster)

	api := engine.Group("/api")
	api.POST("/payments/webhook", paymentHandler.Webhook)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(authenticator))
	authed.GET("/events", streamHandler.Events)
	authed.GET("/profile", driverHandler.Profile)

	orders := authed.Group("/orders")
	orders.POST("", orderHandler.Place)
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Get)
	orders.GET("/:id/timeline", orderHandler.Timeline)
	orders.POST("/:id/accept", orderHandler.Accept)
	orders.POST("/:id/advance", orderHandler.Advance)
	orders.POST("/:id/cancel", orderHandler.Cancel)
	orders.POST("/:id/rating", orderHandler.Rate)
	orders.POST("/:id/payment/confirm", paymentHandler.Confirm)
	orders.POST("/:id/refund", paymentHandler.Refund)

	driver := authed.Group("/driver")
	driver.GET("/orders/available", driverHandler.Available)
	driver.POST("/status", driverHandler.Status)
	driver.POST("/location", driverHandler.Location)

	admin := authed.Group("/admin")
	admin.POST("/drivers/:id/approval", adminHandler.Approval)
	admin.POST("/users/:id/active", adminHandler.Active)
	admin.POST("/orders/:id/override", adminHandler.Override)

	return engine
}
