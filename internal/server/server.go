package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/agenthands/leafcheck/internal/config"
	"github.com/agenthands/leafcheck/internal/core/model"
	"github.com/agenthands/leafcheck/internal/metrics"
)

const (
	RequestIDHeader = "X-Request-ID"
	FileField       = "file"
)

// Analyzer is satisfied by *core.Diagnoser.
type Analyzer interface {
	Analyze(ctx context.Context, image model.Image) (*model.Diagnosis, error)
}

type Server struct {
	Analyzer Analyzer
	Config   config.ServerConfig
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

func NewServer(analyzer Analyzer, cfg config.ServerConfig, logger *zap.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	return &Server{
		Analyzer: analyzer,
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Gatherer: gatherer,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog())

	r.POST("/analyze", s.Analyze)
	r.GET("/health", s.Health)
	if s.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Info("request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Analyze(c *gin.Context) {
	start := time.Now()

	image, err := s.readImage(c)
	if err != nil {
		s.fail(c, start, http.StatusBadRequest, "bad_request", err)
		return
	}

	ctx := c.Request.Context()
	if s.Config.RequestTimeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Config.RequestTimeout.Duration)
		defer cancel()
	}

	diag, err := s.Analyzer.Analyze(ctx, image)
	if err != nil {
		status, outcome := classify(err)
		s.fail(c, start, status, outcome, err)
		return
	}

	s.Logger.Info("diagnosis",
		zap.String("request_id", c.GetString("request_id")),
		zap.String("format", image.Format()),
		zap.String("crop", diag.Record.Crop),
		zap.String("disease", diag.Record.Disease),
		zap.Bool("arbitrated", diag.Arbitrated))
	s.observe("ok", start)
	c.JSON(http.StatusOK, gin.H{"result": diag.Record})
}

func (s *Server) readImage(c *gin.Context) (model.Image, error) {
	limit := s.Config.MaxUploadMB << 20
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	fh, err := c.FormFile(FileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.Image{}, fmt.Errorf("upload exceeds %d MB", s.Config.MaxUploadMB)
		}
		return model.Image{}, fmt.Errorf("missing %q file upload", FileField)
	}

	f, err := fh.Open()
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to read upload: %w", err)
	}

	return model.NewImage(data, fh.Header.Get("Content-Type"))
}

// classify maps workflow errors to an HTTP status and a metrics outcome.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, model.ErrInvalidImage):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, model.ErrParse):
		return http.StatusBadGateway, "parse_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) fail(c *gin.Context, start time.Time, status int, outcome string, err error) {
	s.Logger.Warn("analyze failed",
		zap.String("request_id", c.GetString("request_id")),
		zap.String("outcome", outcome),
		zap.Error(err))
	s.observe(outcome, start)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) observe(outcome string, start time.Time) {
	if s.Metrics != nil {
		s.Metrics.ObserveRequest(outcome, time.Since(start))
	}
}
