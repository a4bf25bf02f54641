package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"portfolio-risk-alerts/internal/alerting"
	"portfolio-risk-alerts/internal/config"
	"portfolio-risk-alerts/internal/service"
	"portfolio-risk-alerts/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// apiResponse is the envelope returned by every endpoint.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Server exposes the alert query surface and one-shot analysis over
// HTTP. All state lives in the engine and service it wraps.
type Server struct {
	cfg    config.ServerConfig
	engine *alerting.Engine
	svc    *service.Service
	macro  func(ctx context.Context) *float64
	router *gin.Engine
	logger zerolog.Logger
}

// New wires the HTTP router. macroDefault supplies the correlation
// scalar for analyze requests that do not provide one; nil disables
// the fallback.
func New(cfg config.ServerConfig, engine *alerting.Engine, svc *service.Service, macroDefault func(ctx context.Context) *float64, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		cfg:    cfg,
		engine: engine,
		svc:    svc,
		macro:  macroDefault,
		router: router,
		logger: logger.With().Str("component", "http_server").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.Group("/api/v1")

	alerts := api.Group("/alerts")
	alerts.GET("", s.handleListAlerts)
	alerts.GET("/undelivered", s.handleUndelivered)
	alerts.POST("/:alert_id/delivered", s.handleMarkDelivered)
	alerts.GET("/health", s.handleHealth)

	api.POST("/risk/analyze", s.handleAnalyze)
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleListAlerts(c *gin.Context) {
	wallet := c.Query("wallet_address")

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxListLimit {
			c.JSON(http.StatusBadRequest, apiResponse{Success: false, Message: "limit must be an integer between 1 and 100"})
			return
		}
		limit = parsed
	}

	alerts, err := s.engine.ListAlerts(c.Request.Context(), wallet, limit)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d alerts", len(alerts)),
		Data: gin.H{
			"alerts":         alerts,
			"total":          len(alerts),
			"wallet_address": wallet,
		},
	})
}

func (s *Server) handleUndelivered(c *gin.Context) {
	alerts, err := s.engine.Undelivered(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d undelivered alerts", len(alerts)),
		Data: gin.H{
			"alerts": alerts,
			"total":  len(alerts),
		},
	})
}

func (s *Server) handleMarkDelivered(c *gin.Context) {
	alertID := c.Param("alert_id")
	method := c.Query("delivery_method")
	if method == "" {
		c.JSON(http.StatusBadRequest, apiResponse{Success: false, Message: "delivery_method is required"})
		return
	}

	if err := s.engine.MarkDelivered(c.Request.Context(), alertID, method); err != nil {
		if errors.Is(err, storage.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, apiResponse{Success: false, Message: "alert not found"})
			return
		}
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: "Alert marked as delivered",
		Data: gin.H{
			"alert_id":        alertID,
			"delivery_method": method,
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	total, undelivered, err := s.engine.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"service": "alerts",
		"status":  "operational",
		"stats": gin.H{
			"total_alerts": total,
			"undelivered":  undelivered,
			"delivered":    total - undelivered,
		},
		"alert_types": s.engine.AlertTypes(),
	})
}

type analyzeRequest struct {
	WalletAddress     string   `json:"wallet_address" binding:"required"`
	MarketCorrelation *float64 `json:"market_correlation"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiResponse{Success: false, Message: err.Error()})
		return
	}

	correlation := req.MarketCorrelation
	if correlation == nil && s.macro != nil {
		correlation = s.macro(c.Request.Context())
	}

	result := s.svc.AnalyzeWallet(c.Request.Context(), req.WalletAddress, correlation)

	status := http.StatusOK
	if result.Status == service.StatusFailed {
		// The failure payload is the contract; the status code just
		// mirrors it for HTTP consumers.
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

func (s *Server) fail(c *gin.Context, err error) {
	s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, apiResponse{Success: false, Message: err.Error()})
}
