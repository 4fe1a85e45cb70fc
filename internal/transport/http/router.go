package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires the handlers into a gin engine with recovery, request
// logging, and per-client rate limiting.
func NewRouter(cfg RouterConfig, log *slog.Logger, appts *AppointmentsHandler, users *UsersHandler) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	if cfg.RateLimitRPS > 0 {
		r.Use(NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	appts.Register(r)
	users.Register(r)

	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	log = log.With(slog.String("component", "http"))
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
