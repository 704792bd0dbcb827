package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/scamwatch/internal/ws"
)

// Options carries the transport settings for SetupRoutes.
type Options struct {
	CORSOrigin     string
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *slog.Logger
	// Registry receives the HTTP metrics and is served on /metrics.
	Registry *prometheus.Registry
}

// SetupRoutes configures all application routes and middleware. ctx bounds
// the background rate limiter cleanup.
func SetupRoutes(ctx context.Context, router *gin.Engine, env *Env, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// --- Middleware ---

	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(NewHTTPMetrics(registry).Middleware())
	router.Use(SecurityHeadersMiddleware())

	corsOrigin := opts.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Location", "X-Request-ID"},
		AllowCredentials: corsOrigin != "*",
		MaxAge:           12 * time.Hour,
	}))

	// --- Rate Limiter Setup ---
	limiter := NewIPRateLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst)
	go limiter.Cleanup(ctx, 10*time.Minute, 30*time.Minute)
	limited := RateLimitMiddleware(limiter)

	router.GET("/health", env.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	// --- API Routes ---

	api := router.Group("/api")
	api.Use(AccessGateMiddleware(env.Accounts, env.Engine))
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", limited, env.Register)
		authGroup.POST("/login", limited, env.Login)

		api.GET("/categories", env.GetCategories)

		warnings := api.Group("/warnings")
		warnings.GET("", env.GetWarnings)
		warnings.GET("/search", env.SearchWarnings)
		warnings.GET("/pending", env.GetPendingWarnings)
		warnings.GET("/:id", env.GetWarning)
		warnings.POST("", limited, env.CreateWarning)
		warnings.PUT("/:id/approve", env.ApproveWarning)
		warnings.PUT("/:id/reject", env.RejectWarning)
		warnings.GET("/:id/comments", env.GetComments)
		warnings.POST("/:id/comments", limited, env.AddComment)

		admin := api.Group("/admin")
		admin.GET("/verify/:userId", env.VerifyAdmin)
		admin.GET("/warnings", env.GetAllWarnings)
		admin.PUT("/warnings/:id", env.UpdateWarning)
		admin.DELETE("/warnings/:id", env.DeleteWarning)
		admin.PUT("/warnings/:id/approve", env.ApproveWarning)
		admin.PUT("/warnings/:id/reject", env.RejectWarning)
		admin.DELETE("/comments/:id", env.DeleteComment)
	}

	// --- WebSocket Route ---

	router.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(env.Hub, c.Writer, c.Request)
	})
}
