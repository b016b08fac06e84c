package monitor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
	"reelforge/internal/metrics"
	"reelforge/internal/queue"
	"reelforge/internal/stage"
)

// Publisher is the queue surface the job submission endpoint needs.
type Publisher interface {
	Publish(ctx context.Context, env queue.Envelope) error
}

// HealthSource reports per-stage readiness, normally the pipeline runner.
type HealthSource func(ctx context.Context) []stage.Health

// Server exposes the monitor HTTP endpoints over a gin engine.
type Server struct {
	cfg       *config.Config
	store     *jobstore.Store
	publisher Publisher
	health    HealthSource
	metrics   *metrics.Metrics
	logger    *slog.Logger
	engine    *gin.Engine
}

func NewServer(cfg *config.Config, store *jobstore.Store, publisher Publisher, health HealthSource, m *metrics.Metrics, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:       cfg,
		store:     store,
		publisher: publisher,
		health:    health,
		metrics:   m,
		logger:    logging.NewComponentLogger(logger, "monitor"),
	}
	s.engine = s.buildEngine()
	return s
}

// Handler returns the underlying HTTP handler, used directly by tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) buildEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	apiGroup := engine.Group("/api", s.requireAPIKey())
	apiGroup.GET("/jobs", s.handleListJobs)
	apiGroup.GET("/jobs/:id", s.handleShowJob)
	apiGroup.POST("/jobs", s.handleSubmitJob)
	return engine
}

// requireAPIKey rejects /api requests without the configured key. An empty
// configured key leaves the API open, which suits the default loopback bind.
func (s *Server) requireAPIKey() gin.HandlerFunc {
	expected := s.cfg.Monitor.APIKey
	return func(c *gin.Context) {
		if expected != "" && c.GetHeader("X-API-Key") != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	summary, err := s.store.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	checks := []stage.Health{}
	if s.health != nil {
		checks = s.health(c.Request.Context())
	}
	ready := true
	for _, check := range checks {
		if !check.Ready {
			ready = false
		}
	}
	status := "ok"
	code := http.StatusOK
	if !ready {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "jobs": summary, "stages": checks})
}

func (s *Server) handleListJobs(c *gin.Context) {
	var statuses []jobstore.Status
	if raw := c.Query("status"); raw != "" {
		status, ok := jobstore.ParseStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + raw})
			return
		}
		statuses = append(statuses, status)
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit " + raw})
			return
		}
		limit = parsed
	}
	jobs, err := s.store.List(c.Request.Context(), statuses...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"jobs": api.NewJobViews(jobs)})
}

func (s *Server) handleShowJob(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}
	job, err := s.store.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, api.NewJobView(job))
}

type submitRequest struct {
	Topic         string `json:"topic" binding:"required"`
	Niche         string `json:"niche"`
	Language      string `json:"language"`
	Voice         string `json:"voice"`
	LengthSeconds int    `json:"length_seconds"`
	Publish       bool   `json:"publish"`
}

func (s *Server) handleSubmitJob(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := s.store.NewJob(c.Request.Context(), jobstore.NewJobRequest{
		Topic:         req.Topic,
		Niche:         req.Niche,
		Language:      req.Language,
		Voice:         req.Voice,
		LengthSeconds: req.LengthSeconds,
		Publish:       req.Publish,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	env := queue.Envelope{
		JobID:         job.ID,
		Topic:         job.Topic,
		Niche:         job.Niche,
		Language:      job.Language,
		Voice:         job.Voice,
		LengthSeconds: job.LengthSeconds,
		Publish:       job.Publish,
		SubmittedAt:   time.Now().UTC(),
	}
	if err := s.publisher.Publish(c.Request.Context(), env); err != nil {
		job.SetFailed("publish to work queue: " + err.Error())
		if updateErr := s.store.Update(c.Request.Context(), job); updateErr != nil {
			s.logger.Error("mark job failed after publish error", logging.Int64(logging.FieldJobID, job.ID), logging.Error(updateErr))
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "queue publish failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, api.SubmitJobResult{JobID: job.ID, Status: string(job.Status)})
}

// Serve runs the HTTP server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Monitor.Bind,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("monitor listening", logging.String("bind", s.cfg.Monitor.Bind))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
