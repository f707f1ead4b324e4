// routes.go - Builds the Gin engine with every API route

package handlers

import (
	"time"

	"envsense-backend/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter returns the engine serving the whole HTTP surface.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.UseRawPath = true // Match "/api/data/name=a%2Fb..." as a single segment
	r.Use(middleware.Recovery(!h.Cfg.IsProduction()), middleware.RequestLogger(), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/uploads", h.Cfg.UploadDir) // Uploaded location images

	auth := middleware.AuthMiddleware(h.Tokens, h.Users)
	admin := middleware.AdminMiddleware()

	// Public credential routes, rate limited per client IP
	authGroup := r.Group("/api/auth")
	authGroup.Use(middleware.RateLimitByIP(h.Cfg.AuthRateLimit, time.Minute))
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/user", h.GetUserByToken)
	}

	data := r.Group("/api/data")
	{
		data.POST("", h.AddData)         // Ingest from JSON or form body
		data.POST("/:params", h.AddData) // Ingest from "name=...&temperature=..." segment
		data.GET("", h.GetLocations)
		data.GET("/location/:id", h.GetLocation)

		data.POST("/rate", auth, h.StarsRate)
		data.PUT("/location", auth, admin, h.UpdateLocation)
		data.PUT("/description", auth, admin, h.UpdateDescription)
		data.DELETE("/location/:id", auth, admin, h.DeleteLocation)
		data.PATCH("/make-admin/:id", auth, admin, h.MakeAdmin)
	}
	return r
}
