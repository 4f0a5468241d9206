package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/run-bigpig/safety-shield/pkg/logging"
	"github.com/run-bigpig/safety-shield/pkg/pipeline"
)

// Handler exposes the pipeline over HTTP
type Handler struct {
	orchestrator *pipeline.Orchestrator
	logger       logging.Logger
}

// NewHandler creates a new Handler
func NewHandler(orchestrator *pipeline.Orchestrator, logger logging.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, logger: logger}
}

type generateRequest struct {
	Prompt        string `json:"prompt" binding:"required"`
	Authorization string `json:"authorization"`
}

// Router builds the gin engine with every route registered
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		v1.POST("/generate", h.Generate)
	}

	return router
}

// Health reports liveness and the configured backend
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"backend": h.orchestrator.Backend(),
	})
}

// Generate runs one pipeline pass for the request body
func (h *Handler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result := h.orchestrator.Run(c.Request.Context(), pipeline.Request{
		Prompt:        req.Prompt,
		Authorization: req.Authorization,
	}, nil)

	c.JSON(StatusFor(result), result)
}

// StatusFor maps a pipeline result onto an HTTP status code
func StatusFor(result *pipeline.Result) int {
	switch result.Outcome {
	case pipeline.OutcomeAccepted:
		return http.StatusOK
	case pipeline.OutcomeRejected:
		if result.Reason == pipeline.ReasonAuthFailed {
			return http.StatusForbidden
		}
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// Serve runs the HTTP server on addr until ctx is cancelled
func (h *Handler) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.logger.Info(ctx, "Shutting down HTTP server", nil)
		return srv.Shutdown(shutdownCtx)
	}
}
