// Package http serves the bot's status surface: the uptime/status document, health
// probes, Prometheus metrics and the API docs.
package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "exchange-ticket-bot/docs"
	"exchange-ticket-bot/internal/metrics"
)

// BotInfo reports the bot's login identity.
type BotInfo interface {
	BotTag() string
}

// Totals reports the global exchanged total.
type Totals interface {
	GetGlobalTotal(ctx context.Context) (decimal.Decimal, error)
}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Deps groups what the router reads. Checks may be empty; a nil entry is skipped.
type Deps struct {
	Bot            BotInfo
	Totals         Totals
	Checks         map[string]Pinger
	AllowedOrigins []string
	Debug          bool
	Started        time.Time
}

// NewRouter builds the gin engine with middleware and routes wired.
func NewRouter(d Deps) *gin.Engine {
	if !d.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Started.IsZero() {
		d.Started = time.Now()
	}

	r := gin.New()
	r.Use(RequestID())
	r.Use(Recovery())
	r.Use(Logger())
	r.Use(metrics.Middleware())

	corsConfig := cors.DefaultConfig()
	if len(d.AllowedOrigins) == 0 || (len(d.AllowedOrigins) == 1 && d.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = d.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	h := &statusHandler{deps: d}
	r.GET("/", h.status)
	r.GET("/health", h.health)
	r.GET("/live", func(c *gin.Context) { c.Status(stdhttp.StatusOK) })
	r.GET("/ready", h.ready)
	r.GET("/metrics", metrics.Handler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}

// NewServer wraps the router in an http.Server with the usual timeouts.
func NewServer(addr string, handler stdhttp.Handler) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
