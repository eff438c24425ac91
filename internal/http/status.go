package http

import (
	"context"
	stdhttp "net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"exchange-ticket-bot/internal/common/logger"
)

const readyTimeout = 2 * time.Second

// PingFunc adapts a plain ping function such as (*sql.DB).PingContext to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

type statusHandler struct {
	deps Deps
}

// StatusResponse is the body of GET /.
type StatusResponse struct {
	Status         string  `json:"status" example:"online"`
	Bot            string  `json:"bot" example:"ExchangeBot#0001"`
	Uptime         float64 `json:"uptime" example:"3600.5"`
	TotalExchanged float64 `json:"totalExchanged" example:"1250.75"`
}

// status godoc
// @Summary      Bot status
// @Description  Login identity, process uptime in seconds and the global exchanged total.
// @Tags         status
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       / [get]
func (h *statusHandler) status(c *gin.Context) {
	resp := StatusResponse{
		Status: "online",
		Bot:    "Not logged in yet",
		Uptime: time.Since(h.deps.Started).Seconds(),
	}
	if h.deps.Bot != nil {
		resp.Bot = h.deps.Bot.BotTag()
	}
	if h.deps.Totals != nil {
		total, err := h.deps.Totals.GetGlobalTotal(c.Request.Context())
		if err != nil {
			logger.Warn().Err(err).Msg("Global total unavailable for status")
		} else {
			resp.TotalExchanged = total.InexactFloat64()
		}
	}
	c.JSON(stdhttp.StatusOK, resp)
}

// health godoc
// @Summary  Health check
// @Tags     status
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *statusHandler) health(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
}

// ready godoc
// @Summary      Readiness probe
// @Description  Pings the database and Redis when they are configured.
// @Tags         status
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /ready [get]
func (h *statusHandler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.deps.Checks))
	for name := range h.deps.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := h.deps.Checks[name]
		if p == nil {
			continue
		}
		if err := p.HealthCheck(ctx); err != nil {
			c.JSON(stdhttp.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   name + " unavailable",
				"details": err.Error(),
			})
			return
		}
	}
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ready"})
}
