package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/huddle-api/api/swagger"
	internalmiddleware "github.com/noah-isme/huddle-api/internal/middleware"
	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/pkg/config"
	"github.com/noah-isme/huddle-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/huddle-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/huddle-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, deps *dependencies, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", deps.metricsHandler.Health)
	r.GET("/ready", deps.metricsHandler.Ready)
	r.GET("/metrics", deps.metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/register", deps.authHandler.Register)
	auth.POST("/login", deps.authHandler.Login)
	auth.POST("/refresh", deps.authHandler.Refresh)
	auth.POST("/logout", internalmiddleware.JWT(deps.auth), deps.authHandler.Logout)
	auth.GET("/me", internalmiddleware.JWT(deps.auth), deps.authHandler.Me)

	clockGroup := api.Group("/clock")
	clockGroup.GET("/parse", deps.clockHandler.Parse)
	clockGroup.POST("/step", deps.clockHandler.Step)
	clockGroup.POST("/overlap", deps.clockHandler.Overlap)

	organizer := api.Group("", internalmiddleware.JWT(deps.auth), internalmiddleware.RequireRoles(models.RoleOrganizer, models.RoleAdmin))
	organizer.POST("/meetings", deps.meetingHandler.Create)
	organizer.GET("/meetings", deps.meetingHandler.List)
	organizer.GET("/meetings/:id", deps.meetingHandler.Get)
	organizer.POST("/meetings/:id/windows", deps.meetingHandler.AddWindow)
	organizer.DELETE("/meetings/:id/windows/:windowId", deps.meetingHandler.DeleteWindow)
	organizer.POST("/meetings/:id/confirm", deps.meetingHandler.Confirm)
	organizer.POST("/meetings/:id/cancel", deps.meetingHandler.Cancel)
	organizer.POST("/meetings/:id/locations/:locationId/pick", deps.locationHandler.Pick)

	if deps.exportHandler != nil {
		organizer.POST("/meetings/:id/exports", deps.exportHandler.Create)
		api.GET("/exports/download", deps.exportHandler.Download)
		organizer.GET("/exports/:jobId", deps.exportHandler.Status)
	}

	public := api.Group("/m/:slug", internalmiddleware.OptionalJWT(deps.auth))
	if cfg.RateLimit.Enabled {
		public.Use(deps.limiter.Middleware())
	}
	public.GET("", deps.availabilityHandler.Meeting)
	public.GET("/overlaps", deps.availabilityHandler.Overlaps)
	public.POST("/windows/:windowId/responses", deps.availabilityHandler.Respond)
	public.DELETE("/windows/:windowId/responses/:responder", deps.availabilityHandler.Withdraw)
	public.GET("/windows/:windowId/bounds", deps.availabilityHandler.Bounds)
	public.POST("/windows/:windowId/step", deps.availabilityHandler.Step)
	public.GET("/locations", deps.locationHandler.List)
	public.POST("/locations", deps.locationHandler.Suggest)
	public.POST("/locations/:locationId/votes", deps.locationHandler.Vote)
	public.GET("/calendar.ics", deps.calendarHandler.Download)

	return r
}
