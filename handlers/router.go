package handlers

import (
	"github.com/gin-gonic/gin"

	"formfill/middleware"
	"formfill/services"
)

// Dependencies are the long-lived services built once at startup.
type Dependencies struct {
	Autofill *services.AutofillService
	Sessions *services.SessionRegistry
	// JWT guards the session routes; nil leaves them open.
	JWT *services.JWTService
	// RateLimiter throttles /autofill; nil disables it.
	RateLimiter  *middleware.RateLimiter
	CORS         middleware.CORSConfig
	MaxBodyBytes int64
	// ScreenshotDir is served under services.ScreenshotURLPrefix; empty serves nothing.
	ScreenshotDir string
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(deps.CORS))

	if deps.ScreenshotDir != "" {
		r.Static(services.ScreenshotURLPrefix, deps.ScreenshotDir)
	}

	autofill := NewAutofillHandler(deps.Autofill)
	sessions := NewSessionHandler(deps.Sessions)

	r.GET("/health", sessions.Health)

	fill := []gin.HandlerFunc{}
	if deps.MaxBodyBytes > 0 {
		fill = append(fill, middleware.MaxRequestSize(deps.MaxBodyBytes))
	}
	if deps.RateLimiter != nil {
		fill = append(fill, deps.RateLimiter.Limit())
	}
	fill = append(fill, autofill.Autofill)
	r.POST("/autofill", fill...)

	operator := r.Group("/sessions", middleware.RequireOperator(deps.JWT))
	operator.GET("", sessions.List)
	operator.DELETE("", sessions.CloseAll)
	operator.GET("/:id", sessions.Get)
	operator.DELETE("/:id", sessions.Close)

	return r
}
