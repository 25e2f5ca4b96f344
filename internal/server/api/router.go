package api

import (
	"strconv"

	"nospace/internal/server/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
// The returned limiter guards the analyze endpoint; stop it on shutdown.
func SetupRouter(handler *Handler, cfg *config.Config) (*echo.Echo, *RateLimiter) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))
	e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxLogSize)))
	e.Use(RequestLogger())

	// Rate limiter on the analyze endpoint only
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Health & stats
	e.GET("/health", handler.HandleHealth)
	e.GET("/api/stats", handler.HandleStats)

	// Analyze (rate-limited)
	e.POST("/api/analyze", handler.HandleAnalyze, limiter.Middleware())

	// Read back
	e.GET("/api/analysis/:id", handler.HandleInfo)
	e.GET("/api/analysis/:id/tree", handler.HandleTree)
	e.GET("/api/analysis/:id/dirs", handler.HandleDirs)
	e.GET("/api/analysis/:id/raw", handler.HandleTranscript)

	// Delete
	e.DELETE("/api/analysis/:id/:token", handler.HandleDelete)

	return e, limiter
}

// bodyLimit leaves room for multipart framing on top of the transcript itself.
func bodyLimit(maxLogSize int64) string {
	const overheadKB = 64
	return strconv.FormatInt(maxLogSize/1024+overheadKB, 10) + "K"
}
