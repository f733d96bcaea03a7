package http

import (
	"github.com/gin-gonic/gin"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/ilindan-dev/sms-sender-bot/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"net/http"
)

// Server is a wrapper for the HTTP server.
type Server struct {
	*http.Server
	logger zerolog.Logger
}

// NewServer creates the admin server: health, metrics and the messages API.
func NewServer(cfg *config.Config, handlers *Handlers, logger *zerolog.Logger) *Server {
	log := logger.With().Str("layer", "http_server").Logger()

	log.Info().Str("mode", cfg.HTTP.GinMode).Msg("setting gin mode")
	gin.SetMode(cfg.HTTP.GinMode)

	router := NewRouter(handlers)

	server := &http.Server{
		Addr:    cfg.HTTP.Port,
		Handler: router,
	}

	return &Server{server, log}
}

// NewRouter wires the middleware and routes.
func NewRouter(handlers *Handlers) *gin.Engine {
	metrics.MustRegister()

	router := gin.New()
	router.Use(gin.Recovery())

	handlers.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
