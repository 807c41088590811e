// Package httpapi mounts the bridge endpoints on a Gin engine together with
// the cross-cutting middleware: tracing, correlation IDs, access logs, panic
// recovery, metrics, rate limiting, compression, CORS and security headers.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-bizdata/internal/config"
	"github.com/tbourn/go-bizdata/internal/http/handlers"
	"github.com/tbourn/go-bizdata/internal/http/middleware"
)

// maxJSONBody caps non-upload request bodies.
const maxJSONBody = 1 << 20

var (
	corsMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
)

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order:
//  1. otelgin
//  2. RequestID
//  3. Logger
//  4. Recovery
//  5. Metrics
//  6. rate limiter
//  7. CORS and security headers
//
// The API group additionally gets gzip and a JSON body cap; uploads are
// capped by their handler instead.
func RegisterRoutes(r *gin.Engine, h *handlers.Handlers, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.RateRPS > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP).Handler())
	}

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.POST("/uploads", h.Upload)

	json := api.Group("", gzip.Gzip(gzip.DefaultCompression), limitBody(maxJSONBody))
	{
		json.GET("/session", h.Me)
		json.POST("/session/login", h.Login)
		json.POST("/session/signup", h.Signup)
		json.POST("/session/logout", h.Logout)

		json.GET("/lists", h.ListLists)
		json.GET("/lists/:name", h.GetList)
		json.PUT("/lists/:name/query", h.SetQuery)
		json.POST("/lists/:name/refresh", h.Refresh)
	}
}

// corsMiddleware allows any origin when none are configured, without
// credentials. Otherwise only the listed origins are allowed.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  corsMethods,
		AllowHeaders:  corsHeaders,
		ExposeHeaders: []string{"X-Request-ID", "Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

// limitBody caps the request body at maxBytes; reads past it fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
