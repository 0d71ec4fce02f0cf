package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ytget/ytin/internal/download"
	"github.com/ytget/ytin/internal/history"
	"github.com/ytget/ytin/internal/model"
	"github.com/ytget/ytin/internal/platform"
)

// DefaultAddr is the listen address of the control API
const DefaultAddr = "127.0.0.1:8765"

// shutdownTimeout bounds graceful shutdown of the HTTP server
const shutdownTimeout = 5 * time.Second

// HistoryStore is the history surface the API needs
type HistoryStore interface {
	Load() (*model.HistoryDocument, error)
	RemoveByID(recordID string) (bool, error)
	Clear() error
}

// Config configures a Server
type Config struct {
	DefaultQuality string
}

// Server is the local control API
type Server struct {
	ctx       context.Context
	downloads download.Downloader
	history   HistoryStore
	hub       *Hub
	log       zerolog.Logger
	cfg       Config
	engine    *gin.Engine
}

type inspectRequest struct {
	URL string `json:"url" binding:"required"`
}

type downloadRequest struct {
	URL     string `json:"url" binding:"required"`
	Quality string `json:"quality"`
}

// NewServer creates the API. Run events of downloads are broadcast to
// websocket clients for as long as ctx is alive.
func NewServer(ctx context.Context, downloads download.Downloader, store HistoryStore, cfg Config, log zerolog.Logger) *Server {
	if cfg.DefaultQuality == "" {
		cfg.DefaultQuality = download.DefaultQuality
	}
	s := &Server{
		ctx:       ctx,
		downloads: downloads,
		history:   store,
		hub:       NewHub(log),
		log:       log,
		cfg:       cfg,
	}
	go s.hub.Run(ctx)
	downloads.SetUpdateCallback(s.publish)

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(s.engine)
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("starting control api")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info().Msg("stopping control api")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", s.health)
	api.POST("/inspect", s.inspect)
	api.GET("/downloads", s.activeDownloads)
	api.POST("/downloads", s.startDownload)
	api.DELETE("/downloads/:id", s.stopDownload)
	api.GET("/history", s.listHistory)
	api.DELETE("/history/:id", s.removeHistory)
	api.DELETE("/history", s.clearHistory)
	api.GET("/events", s.events)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": s.hub.Clients()})
}

func (s *Server) inspect(c *gin.Context) {
	var req inspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playlist, err := s.downloads.Inspect(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, playlist)
}

func (s *Server) activeDownloads(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"downloads": s.downloads.Active()})
}

func (s *Server) startDownload(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quality == "" {
		req.Quality = s.cfg.DefaultQuality
	}
	if !slices.Contains(download.QualityLabels, req.Quality) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown quality: " + req.Quality, "qualities": download.QualityLabels})
		return
	}

	// runs outlive the request
	go func() {
		result, err := s.downloads.Download(s.ctx, req.URL, req.Quality)
		if err != nil {
			s.log.Error().Err(err).Str("url", req.URL).Msg("download request failed")
			return
		}
		s.log.Info().Str("url", req.URL).Int("completed", result.Completed()).Int("items", len(result.Items)).Msg("download request finished")
	}()

	c.JSON(http.StatusAccepted, gin.H{"url": req.URL, "quality": req.Quality})
}

func (s *Server) stopDownload(c *gin.Context) {
	if err := s.downloads.Stop(c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listHistory(c *gin.Context) {
	doc, err := s.history.Load()
	if err != nil {
		s.log.Warn().Err(err).Msg("history unavailable, using empty document")
		doc = model.NewHistoryDocument()
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) removeHistory(c *gin.Context) {
	removed, err := s.history.RemoveByID(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not in history: " + c.Param("id")})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clearHistory(c *gin.Context) {
	if err := s.history.Clear(); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// publish forwards a run event to websocket clients
func (s *Server) publish(event download.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode event")
		return
	}
	s.hub.Broadcast(data)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, download.ErrNotRunning):
		return http.StatusNotFound
	case errors.Is(err, download.ErrFormatUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, history.ErrHistoryCorrupt):
		return http.StatusConflict
	case errors.Is(err, platform.ErrLaunchFailure),
		errors.Is(err, platform.ErrEmptyResponse),
		errors.Is(err, platform.ErrMetadataParse):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
